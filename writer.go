package smdiff

import "io"

// writeSectionHeader is the inverse of readSectionHeader.
func writeSectionHeader(w io.Writer, h SectionHeader) error {
	ctrl := (h.CompressionAlgo << sectionAlgoRShift) & sectionAlgoMask
	if h.Format == Segregated {
		ctrl |= sectionFormatBit
	}
	if h.MoreSections {
		ctrl |= sectionMoreBit
	}
	if err := writeU8(w, ctrl); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(h.NumOperations)); err != nil {
		return err
	}
	outputSize := h.OutputSize
	if h.Format == Segregated {
		if err := writeUvarint(w, uint64(h.NumAddBytes)); err != nil {
			return err
		}
		outputSize -= h.NumAddBytes
	}
	return writeUvarint(w, uint64(outputSize))
}

// writeOpByteAndSize writes the opcode byte and any extra size bytes for op.
func writeOpByteAndSize(w io.Writer, op Op) error {
	flag := byte(op.bitFlag())
	oal := int(op.oal())
	sc, dir := classifySize(oal)
	if op.IsRun() && sc != sizeDone {
		return ErrDataFormat
	}
	switch sc {
	case sizeDone:
		return writeU8(w, flag|dir)
	case sizeU8And62:
		if err := writeU8(w, flag|sizeMask); err != nil {
			return err
		}
		return writeU8(w, byte(oal-u8SizeBase)) //nolint:gosec // oal bounded to 63..317 by classifySize
	default: // sizeU16
		if err := writeU8(w, flag); err != nil {
			return err
		}
		return writeU16LE(w, uint16(oal)) //nolint:gosec // oal bounded to <=65535 by construction
	}
}

// writeOpAddtl writes the operation's payload beyond the opcode byte: the
// Run byte, the Add bytes (Interleaved only), or the Copy address varint.
// cursorD/cursorO track the section-local relative-address state.
func writeOpAddtl(w io.Writer, op Op, cursorD, cursorO *uint64) error {
	switch op.Variant {
	case VariantRun:
		return writeU8(w, op.Run.Byte)
	case VariantAdd:
		_, err := w.Write(op.Add.Bytes)
		return err
	case VariantCopy:
		cursor := cursorD
		if op.Copy.Src == CopyOutput {
			cursor = cursorO
		}
		rel := diffAddressesToRel(*cursor, op.Copy.Addr)
		if err := writeIvarint(w, rel); err != nil {
			return err
		}
		*cursor = op.Copy.Addr
		return nil
	}
	return nil
}

// writeOps writes a section's operation list following its header, matching
// the Interleaved/Segregated layout recorded in header.Format.
func writeOps(w io.Writer, ops []Op, header SectionHeader) error {
	if header.OutputSize > maxSectionOutputCap {
		return ErrDataFormat
	}
	if len(ops) != int(header.NumOperations) {
		return ErrDataFormat
	}
	var cursorD, cursorO uint64
	var totalContentLen uint32
	var addBytesWritten uint32
	var deferredAdds [][]byte

	for _, op := range ops {
		totalContentLen += uint32(op.oal())
		if err := writeOpByteAndSize(w, op); err != nil {
			return err
		}
		switch header.Format {
		case Interleaved:
			if err := writeOpAddtl(w, op, &cursorD, &cursorO); err != nil {
				return err
			}
		case Segregated:
			if op.IsAdd() {
				addBytesWritten += uint32(len(op.Add.Bytes))
				deferredAdds = append(deferredAdds, op.Add.Bytes)
			} else if err := writeOpAddtl(w, op, &cursorD, &cursorO); err != nil {
				return err
			}
		}
	}
	if header.Format == Segregated {
		for _, bytes := range deferredAdds {
			if _, err := w.Write(bytes); err != nil {
				return err
			}
		}
		if addBytesWritten != header.NumAddBytes {
			return ErrDataFormat
		}
	}
	if totalContentLen != header.OutputSize {
		return ErrDataFormat
	}
	return nil
}

// writeSection writes a complete section: header then operations.
func writeSection(w io.Writer, ops []Op, header SectionHeader) error {
	if err := writeSectionHeader(w, header); err != nil {
		return err
	}
	return writeOps(w, ops, header)
}

// SectionUnit pairs a slice of operations with the header describing them.
type SectionUnit struct {
	Ops    []Op
	Header SectionHeader
}

// makeSections partitions a flat operation list into sections bounded by
// maxSectionOutput (clamped to maxSectionOutputCap). The partitioner never
// splits an operation; it closes the current section just before any op
// whose oal would overflow the current section's output_size.
func makeSections(ops []Op, maxSectionOutput int, format Format) []SectionUnit {
	maxOut := maxSectionOutput
	if maxOut <= 0 || maxOut > maxSectionOutputCap {
		maxOut = maxSectionOutputCap
	}

	var result []SectionUnit
	var outputSize, numAddBytes uint32
	startIndex := 0

	for endIndex, op := range ops {
		opSize := uint32(op.oal())
		if outputSize+opSize > uint32(maxOut) {
			result = append(result, SectionUnit{
				Ops: ops[startIndex:endIndex],
				Header: SectionHeader{
					NumOperations: uint32(endIndex - startIndex),
					NumAddBytes:   numAddBytes,
					OutputSize:    outputSize,
					Format:        format,
					MoreSections:  true,
				},
			})
			startIndex = endIndex
			outputSize = 0
			numAddBytes = 0
		}
		if op.IsAdd() {
			numAddBytes += opSize
		}
		outputSize += opSize
	}

	result = append(result, SectionUnit{
		Ops: ops[startIndex:],
		Header: SectionHeader{
			NumOperations: uint32(len(ops) - startIndex),
			NumAddBytes:   numAddBytes,
			OutputSize:    outputSize,
			Format:        format,
			MoreSections:  false,
		},
	})

	return result
}
