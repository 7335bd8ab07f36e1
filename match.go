package smdiff

// Match extension and cost-based candidate selection: given a hash hit in
// either index, verify the literal bytes, extend the match in both
// directions, and score it against the alternative of encoding the same
// bytes as a literal Add.

// sizeClassOverhead is the number of bytes (beyond the opcode byte itself)
// an operation's size class costs, mirroring classifySize's three cases.
func sizeClassOverhead(size int) int {
	switch {
	case size <= maxDirectSize:
		return 0
	case size <= maxDirectSize+255:
		return 1
	default:
		return 2
	}
}

func addCost(length int) int {
	return 1 + sizeClassOverhead(length) + length
}

func copyCost(cursor, addr uint64, length int) int {
	return 1 + sizeClassOverhead(length) + uvarintEncodedSize(zigzagEncode(diffAddressesToRel(cursor, addr)))
}

// matchCandidate is one extended, not-yet-committed match. back is how many
// bytes before the scan cursor the match's target span begins (backward
// extension); it is always 0 for CopyOutput candidates, which only extend
// forward.
type matchCandidate struct {
	src    CopySrc
	addr   uint64
	length int
	back   int
}

func (m matchCandidate) cursorFor(lastDict, lastOutput uint64) uint64 {
	if m.src == CopyOutput {
		return lastOutput
	}
	return lastDict
}

// netSavings is addCost-copyCost, the encoder's selection criterion: the
// candidate with the highest value is kept, and only if it beats encoding
// the same span as a literal Add (netSavings > 0).
func (m matchCandidate) netSavings(lastDict, lastOutput uint64) int {
	return addCost(m.length) - copyCost(m.cursorFor(lastDict, lastOutput), m.addr, m.length)
}

// extendMatch verifies the initial hashLen bytes actually agree (hashes can
// collide), then extends backward and forward by byte comparison. Backward
// extension is bounded only by each buffer's own start (this is safe even
// when bStart falls inside a pending, not-yet-flushed literal gap: those
// bytes are real target content, simply not yet emitted as an Add).
func extendMatch(a []byte, aStart int, b []byte, bStart, hashLen int) (pre, post int, ok bool) {
	if aStart < 0 || bStart < 0 || aStart+hashLen > len(a) || bStart+hashLen > len(b) {
		return 0, 0, false
	}
	for i := 0; i < hashLen; i++ {
		if a[aStart+i] != b[bStart+i] {
			return 0, 0, false
		}
	}
	minOffset := aStart
	if bStart < minOffset {
		minOffset = bStart
	}
	for pre < minOffset && a[aStart-pre-1] == b[bStart-pre-1] {
		pre++
	}
	aEnd, bEnd := aStart+hashLen, bStart+hashLen
	maxPost := len(a) - aEnd
	if r := len(b) - bEnd; r < maxPost {
		maxPost = r
	}
	for post < maxPost && a[aEnd+post] == b[bEnd+post] {
		post++
	}
	return pre, post, true
}

// extendMatchForward is extendMatch without backward extension, used for
// target-self matches: the candidate's own earlier occurrence must not be
// grown backward past content that a prior op already claimed. A candidate
// whose hash window already reaches past cur is rejected, so the whole match
// always ends at or before cur.
func extendMatchForward(buf []byte, start, cur, hashLen int) (post int, ok bool) {
	if start+hashLen > len(buf) || cur+hashLen > len(buf) || start+hashLen > cur {
		return 0, false
	}
	for i := 0; i < hashLen; i++ {
		if buf[start+i] != buf[cur+i] {
			return 0, false
		}
	}
	matchEnd, curEnd := start+hashLen, cur+hashLen
	maxPost := cur - matchEnd // may not read into or past cur's own unwritten tail
	if r := len(buf) - curEnd; r < maxPost {
		maxPost = r
	}
	for post < maxPost && buf[matchEnd+post] == buf[curEnd+post] {
		post++
	}
	return post, true
}

// findBestSrcMatch probes idx's chain for hash and returns the best-scoring
// extension against src, or ok=false if nothing beat a zero-length match.
func findBestSrcMatch(idx *srcIndex, src, trgt []byte, curPos int, hash uint64, chainCheck int) (matchCandidate, bool) {
	var best matchCandidate
	bestTotal := -1
	for _, srcPos := range idx.candidates(hash, chainCheck) {
		pre, post, ok := extendMatch(src, srcPos, trgt, curPos, idx.hashLen)
		if !ok {
			continue
		}
		total := pre + idx.hashLen + post
		if total > bestTotal {
			bestTotal = total
			best = matchCandidate{src: CopyDict, addr: uint64(srcPos - pre), length: total, back: pre}
		}
	}
	return best, bestTotal > 0
}

// findBestTrgtMatch is findBestSrcMatch's counterpart over the output
// buffer produced so far.
func findBestTrgtMatch(idx *trgtIndex, trgt []byte, curPos int, hash uint64, chainCheck int) (matchCandidate, bool) {
	var best matchCandidate
	bestTotal := -1
	for _, pos := range idx.candidates(hash, chainCheck) {
		post, ok := extendMatchForward(trgt, pos, curPos, idx.hashLen)
		if !ok {
			continue
		}
		total := idx.hashLen + post
		if total > bestTotal {
			bestTotal = total
			best = matchCandidate{src: CopyOutput, addr: uint64(pos), length: total}
		}
	}
	return best, bestTotal > 0
}
