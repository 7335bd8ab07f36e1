package smdiff

import "bytes"

// Merge composes two sequentially applicable patches, predecessor (A->B)
// and successor (B->C), into one patch (A->C): applying the result to A
// yields the same bytes as applying predecessor to A and then successor to
// that output. Secondary-compressed sections are not supported by the
// merger; both patches must use compression_algo 0 throughout.
func Merge(predecessor, successor []byte) ([]byte, error) {
	predFlat, predTotal, err := extractOps(predecessor)
	if err != nil {
		return nil, err
	}
	predResolved, err := resolveOutputCopies(predFlat)
	if err != nil {
		return nil, err
	}

	succFlat, _, err := extractOps(successor)
	if err != nil {
		return nil, err
	}
	succResolved, err := resolveOutputCopies(succFlat)
	if err != nil {
		return nil, err
	}

	spliced, err := spliceAgainstPredecessor(succResolved, predResolved, predTotal)
	if err != nil {
		return nil, err
	}

	ops := make([]Op, len(spliced))
	for i, fo := range spliced {
		ops[i] = fo.op
	}

	sections := makeSections(ops, maxSectionOutputCap, Interleaved)
	var buf bytes.Buffer
	for _, sec := range sections {
		if err := writeSection(&buf, sec.Ops, sec.Header); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Stats tallies per-variant operation and byte counts across every section
// of a patch, without resolving Copy{Output} chains or Copy{Dict}
// references.
type Stats struct {
	AddOps, AddBytes               uint32
	RunOps, RunBytes               uint32
	CopyDictOps, CopyDictBytes     uint32
	CopyOutputOps, CopyOutputBytes uint32
}

// ExtractStats reports the operation and byte breakdown of patch.
func ExtractStats(patch []byte) (Stats, error) {
	flat, _, err := extractOps(patch)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for _, fo := range flat {
		switch {
		case fo.op.IsAdd():
			s.AddOps++
			s.AddBytes += uint32(fo.op.oal())
		case fo.op.IsRun():
			s.RunOps++
			s.RunBytes += uint32(fo.op.oal())
		case fo.op.Copy.Src == CopyDict:
			s.CopyDictOps++
			s.CopyDictBytes += uint32(fo.op.oal())
		default:
			s.CopyOutputOps++
			s.CopyOutputBytes += uint32(fo.op.oal())
		}
	}
	return s, nil
}

// IsSummaryPatch reports whether patch contains no remaining Copy{Dict}
// operations, meaning it can be applied with no source.
func IsSummaryPatch(patch []byte) (bool, error) {
	stats, err := ExtractStats(patch)
	if err != nil {
		return false, err
	}
	return stats.CopyDictBytes == 0, nil
}

// flatOp is one operation with its absolute output-start offset, the
// section/address framing erased.
type flatOp struct {
	start uint32
	op    Op
}

// extractOps flattens every section of patch into a single (output_start,
// Op) list with absolute starts. The merger only understands algo-0
// (uncompressed) sections; the compression check happens on the header
// alone, before any attempt to parse the section payload as an operation
// list, since a compressed payload is not one.
func extractOps(patch []byte) ([]flatOp, uint32, error) {
	r := bytes.NewReader(patch)
	var flat []flatOp
	var total uint32
	for {
		header, err := readSectionHeader(r)
		if err != nil {
			return nil, 0, err
		}
		if header.CompressionAlgo != 0 {
			return nil, 0, ErrUnsupportedCompression
		}
		ops, err := readOps(r, header)
		if err != nil {
			return nil, 0, err
		}
		for _, op := range ops {
			flat = append(flat, flatOp{start: total, op: op})
			total += uint32(op.oal())
		}
		if !header.MoreSections {
			return flat, total, nil
		}
	}
}

// locateOp binary-searches ops (sorted, contiguous by construction) for the
// rightmost entry whose output range contains pos.
func locateOp(ops []flatOp, pos uint64) int {
	lo, hi := 0, len(ops)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if uint64(ops[mid].start) <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// appendRange appends to dst the exact sub-list of src covering
// src_output[addr : addr+length], trimming the first and last matched op to
// the precise range, with their start offsets rewritten to total (dst's
// current output length). src may alias dst (self-reference): src's header
// is captured at the call site, so later appends to dst past its original
// length never perturb the elements src still reads. srcTotal is the total
// output length src covers; addr+length beyond it means the patch
// references output that was never produced.
func appendRange(dst []flatOp, total uint32, src []flatOp, srcTotal uint32, addr uint64, length uint32) ([]flatOp, uint32, error) {
	if addr+uint64(length) > uint64(srcTotal) {
		return nil, 0, ErrDataFormat
	}
	remaining := length
	pos := addr
	i := locateOp(src, pos)
	for remaining > 0 {
		fo := src[i]
		opEnd := uint64(fo.start) + uint64(fo.op.oal())
		seg := fo.op

		if frontSkip := uint32(pos - uint64(fo.start)); frontSkip > 0 {
			seg.skip(frontSkip)
		}
		take := uint32(opEnd - pos)
		if take > remaining {
			seg.trunc(take - remaining)
			take = remaining
		}

		dst = append(dst, flatOp{start: total, op: seg})
		total += take
		pos += uint64(take)
		remaining -= take
		i++
	}
	return dst, total, nil
}

// resolveOutputCopies replaces every Copy{Output} in flat with the resolved
// sub-list of earlier (already-resolved) operations it refers to. The input
// is a DAG of output-references, but since it is scanned strictly in
// output order, every Copy{Output} only ever refers back into the part of
// `resolved` already built — a single forward pass, no recursion.
func resolveOutputCopies(flat []flatOp) ([]flatOp, error) {
	resolved := make([]flatOp, 0, len(flat))
	var total uint32
	var err error
	for _, fo := range flat {
		if fo.op.IsCopy() && fo.op.Copy.Src == CopyOutput {
			resolved, total, err = appendRange(resolved, total, resolved, total, fo.op.Copy.Addr, uint32(fo.op.Copy.Len))
			if err != nil {
				return nil, err
			}
			continue
		}
		resolved = append(resolved, flatOp{start: total, op: fo.op})
		total += uint32(fo.op.oal())
	}
	return resolved, nil
}

// spliceAgainstPredecessor replaces every Copy{Dict} in succ (which
// addresses predResolved's output, the predecessor's target) with the
// matching sub-list of predResolved. Ops that are not Copy{Dict} pass
// through unchanged. predTotal is predResolved's total output length.
func spliceAgainstPredecessor(succ, predResolved []flatOp, predTotal uint32) ([]flatOp, error) {
	result := make([]flatOp, 0, len(succ))
	var total uint32
	var err error
	for _, fo := range succ {
		if fo.op.IsCopy() && fo.op.Copy.Src == CopyDict {
			result, total, err = appendRange(result, total, predResolved, predTotal, fo.op.Copy.Addr, uint32(fo.op.Copy.Len))
			if err != nil {
				return nil, err
			}
			continue
		}
		result = append(result, flatOp{start: total, op: fo.op})
		total += uint32(fo.op.oal())
	}
	return result, nil
}
