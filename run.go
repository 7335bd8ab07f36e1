package smdiff

// Run detection and emission. A run of >=3 identical bytes is cheaper to
// encode as Run op(s) than as a literal Add, and very long runs are cheaper
// still as a short chain of Runs followed by Copy{Output} ops that repeat
// them, instead of one Run per maxRunLen chunk.

const minRunLen = 3

// detectRun reports the length of the run of buf[0]'s value starting at
// buf[0], capped at len(buf).
func detectRun(buf []byte) (b byte, length int) {
	if len(buf) == 0 {
		return 0, 0
	}
	b = buf[0]
	for length < len(buf) && buf[length] == b {
		length++
	}
	return b, length
}

// runLimit is the length past which copy chunking becomes cheaper than one
// Run per maxRunLen-byte chunk: three maxRunLen Runs (186 bytes) plus
// Copy{Output} ops of up to copyLimit bytes each beats emitting a Run every
// 62 bytes once the run is long enough.
const (
	runLimit  = maxRunLen * 6 // 372
	copyLimit = runLimit / 2  // 186
)

// emitRunOps appends ops encoding length bytes of value b, starting at
// output offset runStart, to out. Runs shorter than runLimit are chunked
// into maxRunLen-byte Run ops. Runs of at least runLimit bytes open with
// three maxRunLen Runs (establishing a copyLimit-byte block at runStart),
// then cover the remainder with Copy{Output} ops that all read from
// runStart, each at most copyLimit bytes long, until the run is exhausted.
// Copy lengths do not grow past copyLimit as more of the run is written.
func emitRunOps(b byte, length, runStart int, out []Op) []Op {
	if length < runLimit {
		for length > 0 {
			n := length
			if n > maxRunLen {
				n = maxRunLen
			}
			out = append(out, OpRun(b, uint8(n))) //nolint:gosec // n<=maxRunLen(62)
			length -= n
		}
		return out
	}

	for i := 0; i < 3; i++ {
		out = append(out, OpRun(b, maxRunLen))
	}
	remaining := length - copyLimit
	for remaining > 0 {
		n := remaining
		if n > copyLimit {
			n = copyLimit
		}
		out = append(out, OpCopy(CopyOutput, uint64(runStart), uint16(n))) //nolint:gosec // n<=copyLimit(186)
		remaining -= n
	}
	return out
}
