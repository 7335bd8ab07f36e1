package smdiff

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Encode produces a patch transforming source into target. source may be
// nil or empty, which puts the encoder in pure-compression mode (no
// Copy{Dict} is ever emitted).
func Encode(source, target []byte, opts *EncodeOptions) ([]byte, error) {
	opts = opts.withDefaults()

	ops := synthesizeOps(source, target, opts)
	sections := makeSections(ops, opts.MaxSectionOutput, opts.SectionFormat)

	var buf bytes.Buffer
	offset := 0
	for i, sec := range sections {
		raw := target[offset : offset+int(sec.Header.OutputSize)]
		offset += int(sec.Header.OutputSize)

		last := i == len(sections)-1
		if last && opts.SecondaryCompression != CompressionNone {
			if err := writeCompressedSection(&buf, sec, raw, opts); err != nil {
				return nil, err
			}
			continue
		}
		if err := writeSection(&buf, sec.Ops, sec.Header); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeCompressedSection emits sec with its compression_algo field set per
// opts.SecondaryCompression. Nested re-wraps the section's own ops as a
// one-section sub-stream (a faithful, non-optimizing realization: it does
// not re-run matching one level down to exploit repeated structure within
// the section). Zstd/Brotli compress the section's raw reconstructed bytes
// directly, bypassing the operation encoding entirely.
//
// Secondary compression is only ever applied to a patch's final section
// (see decodeSectionInto in decoder.go): zstd/brotli streams are not
// self-delimiting against a shared reader once more sections follow.
func writeCompressedSection(w io.Writer, sec SectionUnit, raw []byte, opts *EncodeOptions) error {
	header := sec.Header
	header.MoreSections = false

	switch opts.SecondaryCompression {
	case CompressionNested:
		header.CompressionAlgo = uint8(CompressionNested)
		if err := writeSectionHeader(w, header); err != nil {
			return err
		}
		inner := sec.Header
		inner.CompressionAlgo = 0
		inner.MoreSections = false
		return writeSection(w, sec.Ops, inner)

	case CompressionZstd, CompressionBrotli:
		var compressed bytes.Buffer
		if opts.SecondaryCompression == CompressionZstd {
			zw, err := zstd.NewWriter(&compressed)
			if err != nil {
				return ErrSecondaryCodec
			}
			if _, err := zw.Write(raw); err != nil {
				return ErrSecondaryCodec
			}
			if err := zw.Close(); err != nil {
				return ErrSecondaryCodec
			}
		} else {
			bw := brotli.NewWriter(&compressed)
			if _, err := bw.Write(raw); err != nil {
				return ErrSecondaryCodec
			}
			if err := bw.Close(); err != nil {
				return ErrSecondaryCodec
			}
		}
		header.CompressionAlgo = uint8(opts.SecondaryCompression)
		if err := writeSectionHeader(w, header); err != nil {
			return err
		}
		_, err := w.Write(compressed.Bytes())
		return err

	default:
		return writeSection(w, sec.Ops, header)
	}
}

// synthesizeOps is the matching core: pre-match prefix/suffix heuristics
// followed by a run_pos/copy_pos scan (grounded on the reference encoder's
// window-scan shape) driven by cost-based candidate selection (match.go).
func synthesizeOps(source, target []byte, opts *EncodeOptions) []Op {
	lvl := fixedLevels[opts.Level]

	var ops []Op
	workTarget := target
	baseOut := 0
	var trailingSourceLen int

	if opts.NaiveTests != NaiveOff && len(source) > 0 && len(source) <= len(target) {
		tryAppend := func() bool {
			if !bytes.HasPrefix(target, source) {
				return false
			}
			ops = appendCopyChunks(ops, CopyDict, 0, len(source))
			workTarget = target[len(source):]
			baseOut = len(source)
			return true
		}
		tryPrepend := func() bool {
			if !bytes.HasSuffix(target, source) {
				return false
			}
			workTarget = target[:len(target)-len(source)]
			trailingSourceLen = len(source)
			return true
		}
		switch opts.NaiveTests {
		case NaiveAppend:
			tryAppend()
		case NaivePrepend:
			tryPrepend()
		case NaiveAppendPrepend:
			if !tryAppend() {
				tryPrepend()
			}
		case NaivePrependAppend:
			if !tryPrepend() {
				tryAppend()
			}
		}
	}

	ops = scanForOps(ops, source, workTarget, baseOut, opts, lvl)

	if trailingSourceLen > 0 {
		ops = appendCopyChunks(ops, CopyDict, 0, trailingSourceLen)
	}
	return ops
}

// scanForOps runs the dual-cursor scan over workTarget, appending to ops.
// baseOut is workTarget[0]'s absolute position in the real target, used to
// translate Copy{Output} addresses (which the target-so-far index reports
// relative to workTarget) into the patch's real output address space.
func scanForOps(ops []Op, source, workTarget []byte, baseOut int, opts *EncodeOptions, lvl matchLevelParams) []Op {
	srcHashLen := int(hashWindowLenFor(max1(len(source), 1)))
	chainCheck := int(lvl.chainCheck)

	var srcIdx *srcIndex
	var srcProbe hashCursor
	if opts.MatchSource && len(source) > 0 {
		win := source
		if len(win) > opts.MaxSourceWindow {
			win = win[:opts.MaxSourceWindow]
		}
		if len(win) >= srcHashLen {
			srcIdx = newSrcIndex(win, srcHashLen, int(lvl.lStep), chainCheck*64)
			srcIdx.seedFrom(0)
			srcIdx.advanceTo(len(win) - srcHashLen)
			if len(workTarget) >= srcHashLen {
				srcProbe = newHashCursor(workTarget, srcHashLen)
			}
		}
	}

	trgtHashLen := trgtHashWindowLenFor(srcHashLen)
	var trgtIdx *trgtIndex
	var trgtProbe *directHasher
	if opts.MatchTarget && len(workTarget) >= trgtHashLen {
		trgtIdx = newTrgtIndex(workTarget, trgtHashLen, chainCheck*64)
		trgtProbe = newDirectHasher(workTarget, trgtHashLen)
	}

	var cursorD, cursorO uint64
	pos, pendingStart := 0, 0

	flush := func(end int) {
		if end > pendingStart {
			ops = appendAddChunks(ops, workTarget[pendingStart:end])
		}
	}

	for pos < len(workTarget) {
		if b, runLen := detectRun(workTarget[pos:]); runLen >= minRunLen {
			flush(pos)
			ops = emitRunOps(b, runLen, baseOut+pos, ops)
			pos += runLen
			pendingStart = pos
			continue
		}

		var best matchCandidate
		haveBest := false

		if srcIdx != nil && srcProbe != nil && pos+srcHashLen <= len(workTarget) {
			if hash, ok := srcProbe.seek(pos); ok {
				if cand, ok := findBestSrcMatch(srcIdx, srcIdx.src, workTarget, pos, hash, chainCheck); ok {
					best, haveBest = cand, true
				}
			}
		}
		if trgtIdx != nil && pos+trgtHashLen <= len(workTarget) {
			trgtIdx.advanceTo(pos)
			if hash, ok := trgtProbe.seek(pos); ok {
				if cand, ok := findBestTrgtMatch(trgtIdx, workTarget, pos, hash, chainCheck); ok {
					if !haveBest || cand.netSavings(cursorD, cursorO) > best.netSavings(cursorD, cursorO) {
						best, haveBest = cand, true
					}
				}
			}
		}

		if haveBest && best.netSavings(cursorD, cursorO) > 0 {
			// best.back bytes of the match lie before pos (backward
			// extension); clamp to what's still unflushed, since bytes an
			// earlier op already emitted cannot be re-covered here.
			back := best.back
			if back > pos-pendingStart {
				back = pos - pendingStart
			}
			trimmed := best.back - back
			addr := best.addr + uint64(trimmed)
			length := best.length - trimmed
			if best.src == CopyOutput {
				addr += uint64(baseOut)
			}
			flush(pos - back)
			ops = appendCopyChunks(ops, best.src, addr, length)
			if best.src == CopyDict {
				cursorD = addr
			} else {
				cursorO = addr
			}
			pos = pos - back + length
			pendingStart = pos
			continue
		}

		pos++
	}
	flush(len(workTarget))
	return ops
}

// trgtHashWindowLenFor picks the target-so-far hash window, capped at 4
// bytes since trgtIndex is always a direct hasher (never rolling).
func trgtHashWindowLenFor(srcHashLen int) int {
	if srcHashLen < 3 {
		return 3
	}
	if srcHashLen > 4 {
		return 4
	}
	return srcHashLen
}

func appendCopyChunks(ops []Op, src CopySrc, addr uint64, total int) []Op {
	for total > 0 {
		n := total
		if n > maxAddOrCopyLen {
			n = maxAddOrCopyLen
		}
		ops = append(ops, OpCopy(src, addr, uint16(n))) //nolint:gosec // n<=maxAddOrCopyLen
		addr += uint64(n)
		total -= n
	}
	return ops
}

func appendAddChunks(ops []Op, data []byte) []Op {
	for len(data) > 0 {
		n := len(data)
		if n > maxAddOrCopyLen {
			n = maxAddOrCopyLen
		}
		ops = append(ops, OpAdd(data[:n]))
		data = data[n:]
	}
	return ops
}
