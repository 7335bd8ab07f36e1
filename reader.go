package smdiff

import "io"

// readSectionHeader parses the control byte and header fields at the start
// of a section.
func readSectionHeader(r io.Reader) (SectionHeader, error) {
	ctrl, err := readU8(r)
	if err != nil {
		return SectionHeader{}, err
	}
	format := Interleaved
	if ctrl&sectionFormatBit != 0 {
		format = Segregated
	}
	moreSections := ctrl&sectionMoreBit != 0
	algo := (ctrl & sectionAlgoMask) >> sectionAlgoRShift

	numOps, err := readUvarint(r)
	if err != nil {
		return SectionHeader{}, err
	}
	var numAddBytes uint64
	if format == Segregated {
		numAddBytes, err = readUvarint(r)
		if err != nil {
			return SectionHeader{}, err
		}
	}
	readSize, err := readUvarint(r)
	if err != nil {
		return SectionHeader{}, err
	}
	outputSize := readSize
	if format == Segregated {
		outputSize = numAddBytes + readSize
	}

	return SectionHeader{
		CompressionAlgo: algo,
		Format:          format,
		MoreSections:    moreSections,
		NumOperations:   uint32(numOps), //nolint:gosec // wire format bounds this to u32
		NumAddBytes:     uint32(numAddBytes),
		OutputSize:      uint32(outputSize),
	}, nil
}

// opByte describes the decoded opcode byte: its kind and its size class.
type opByte struct {
	kind OpKind
	sc   sizeClass
	dir  byte // valid only when sc == sizeDone
}

func readOpByte(r io.Reader) (opByte, error) {
	b, err := readU8(r)
	if err != nil {
		return opByte{}, err
	}
	kind := OpKind(b & opKindMask)
	sizeField := b & sizeMask
	switch kind {
	case opCopyDict, opCopyOutput, opAdd, opRun:
	default:
		return opByte{}, ErrDataFormat
	}
	switch sizeField {
	case sizeClassU16: // 0
		return opByte{kind: kind, sc: sizeU16}, nil
	case sizeClassU8: // 63
		return opByte{kind: kind, sc: sizeU8And62}, nil
	default:
		return opByte{kind: kind, sc: sizeDone, dir: sizeField}, nil
	}
}

// readOp parses a single operation. cursorD/cursorO are the section-local
// relative-address cursors for Copy{Dict}/Copy{Output}, updated in place.
// When isInterleaved is false, Add payload bytes are deferred (the caller
// fills them in after the instruction list, per the Segregated layout).
func readOp(r io.Reader, cursorD, cursorO *uint64, isInterleaved bool) (Op, error) {
	ob, err := readOpByte(r)
	if err != nil {
		return Op{}, err
	}
	if ob.kind == opRun && ob.sc != sizeDone {
		return Op{}, ErrDataFormat
	}

	var size uint16
	switch ob.sc {
	case sizeDone:
		size = uint16(ob.dir)
	case sizeU8And62:
		extra, err := readU8(r)
		if err != nil {
			return Op{}, err
		}
		size = uint16(extra) + u8SizeBase
	case sizeU16:
		size, err = readU16LE(r)
		if err != nil {
			return Op{}, err
		}
	}

	switch ob.kind {
	case opCopyDict, opCopyOutput:
		rel, err := readIvarint(r)
		if err != nil {
			return Op{}, err
		}
		src := CopyDict
		cursor := cursorD
		if ob.kind == opCopyOutput {
			src = CopyOutput
			cursor = cursorO
		}
		*cursor = diffAddressesToAbs(*cursor, rel)
		return OpCopy(src, *cursor, size), nil

	case opAdd:
		bytes := make([]byte, size)
		if isInterleaved {
			if _, err := io.ReadFull(r, bytes); err != nil {
				if err == io.ErrUnexpectedEOF || err == io.EOF {
					return Op{}, ErrUnexpectedEOF
				}
				return Op{}, err
			}
		}
		return OpAdd(bytes), nil

	default: // opRun
		b, err := readU8(r)
		if err != nil {
			return Op{}, err
		}
		return OpRun(b, uint8(size)), nil //nolint:gosec // size validated <= maxRunLen by sc==sizeDone
	}
}

// readOps parses a section's operation list following its header, handling
// both the Interleaved and Segregated payload layouts.
func readOps(r io.Reader, header SectionHeader) ([]Op, error) {
	var cursorD, cursorO uint64
	ops := make([]Op, 0, header.NumOperations)

	if header.Format == Segregated {
		var addIdxs []int
		var checkSize uint32
		for i := uint32(0); i < header.NumOperations; i++ {
			op, err := readOp(r, &cursorD, &cursorO, false)
			if err != nil {
				return nil, err
			}
			checkSize += uint32(op.oal())
			if op.IsAdd() {
				addIdxs = append(addIdxs, int(i))
			}
			ops = append(ops, op)
		}
		if checkSize != header.OutputSize {
			return nil, ErrDataFormat
		}
		for _, idx := range addIdxs {
			if _, err := io.ReadFull(r, ops[idx].Add.Bytes); err != nil {
				if err == io.ErrUnexpectedEOF || err == io.EOF {
					return nil, ErrUnexpectedEOF
				}
				return nil, err
			}
		}
		return ops, nil
	}

	var checkSize uint32
	for i := uint32(0); i < header.NumOperations; i++ {
		op, err := readOp(r, &cursorD, &cursorO, true)
		if err != nil {
			return nil, err
		}
		checkSize += uint32(op.oal())
		ops = append(ops, op)
	}
	if checkSize != header.OutputSize {
		return nil, ErrDataFormat
	}
	return ops, nil
}

// readSection reads one section's header and operation list.
func readSection(r io.Reader) ([]Op, SectionHeader, error) {
	header, err := readSectionHeader(r)
	if err != nil {
		return nil, SectionHeader{}, err
	}
	ops, err := readOps(r, header)
	if err != nil {
		return nil, SectionHeader{}, err
	}
	return ops, header, nil
}

// SectionReader exposes a patch's section list as a lazy, finite,
// non-restartable sequence: call Next until it returns ok=false.
type SectionReader struct {
	r    io.Reader
	done bool
}

// NewSectionReader wraps r for sequential section-by-section reading.
func NewSectionReader(r io.Reader) *SectionReader {
	return &SectionReader{r: r}
}

// Next returns the next section's operations and header, or ok=false once
// the section with MoreSections=false has been consumed.
func (s *SectionReader) Next() (ops []Op, header SectionHeader, ok bool, err error) {
	if s.done {
		return nil, SectionHeader{}, false, nil
	}
	ops, header, err = readSection(s.r)
	if err != nil {
		return nil, SectionHeader{}, false, err
	}
	if !header.MoreSections {
		s.done = true
	}
	return ops, header, true, nil
}
