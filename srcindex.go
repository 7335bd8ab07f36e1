package smdiff

// srcIndex is a hash table over a window of the source buffer, with a
// fixed-capacity ring-chain for same-bucket collisions (head/next arrays
// keyed by position) rather than an evicting chain-list design, which does
// not translate cleanly into idiomatic Go.
type srcIndex struct {
	src      []byte
	hasher   hashCursor
	lStep    int
	hashLen  int
	chainCap int

	tableMask uint64
	head      []int32 // bucket -> most recent stored position+1 (0 = empty)
	next      []int32 // ring[pos % chainCap] -> previous position at same bucket, +1
}

func newSrcIndex(src []byte, hashLen, lStep, chainCapHint int) *srcIndex {
	tableBits := bitsFor(max1(len(src)/max1(lStep, 1), 16))
	chainCap := nextPow2(max1(chainCapHint, 64))
	idx := &srcIndex{
		src:       src,
		hasher:    newHashCursor(src, hashLen),
		lStep:     lStep,
		hashLen:   hashLen,
		chainCap:  chainCap,
		tableMask: (uint64(1) << tableBits) - 1,
		head:      make([]int32, 1<<tableBits),
		next:      make([]int32, chainCap),
	}
	return idx
}

func (s *srcIndex) bucket(hash uint64) int {
	shift := uint(64 - bitsForMask(s.tableMask))
	return int((hash>>shift ^ hash) & s.tableMask)
}

func (s *srcIndex) store(hash uint64, pos int) {
	b := s.bucket(hash)
	ring := pos % s.chainCap
	s.next[ring] = s.head[b]
	s.head[b] = int32(pos + 1)
}

// seedFrom positions the hasher at start without storing it (the window
// the source index should start indexing from).
func (s *srcIndex) seedFrom(start int) {
	if start < 0 {
		start = 0
	}
	s.hasher.seek(start)
}

// advanceTo strides the hasher forward in lStep hops up to pos, storing
// every stopping point. The source window is indexed once, in full, before
// scanning starts, since it does not grow as the scan progresses.
func (s *srcIndex) advanceTo(pos int) {
	maxStart := len(s.src) - s.hashLen
	if maxStart < 0 {
		return
	}
	for s.hasher.curPos() <= pos && s.hasher.curPos() <= maxStart {
		at := s.hasher.curPos()
		hash, ok := s.hasher.seek(at)
		if !ok {
			return
		}
		s.store(hash, at)
		next := at + s.lStep
		if next > maxStart {
			return
		}
		if _, ok := s.hasher.seek(next); !ok {
			return
		}
	}
}

// candidates returns up to maxChecks earlier source positions whose hash
// bucket matches hash, nearest first.
func (s *srcIndex) candidates(hash uint64, maxChecks int) []int {
	b := s.bucket(hash)
	pos := int(s.head[b]) - 1
	var out []int
	checks := 0
	basePos := pos
	for pos >= 0 && checks < maxChecks {
		out = append(out, pos)
		checks++
		ring := pos % s.chainCap
		prevVal := int(s.next[ring]) - 1
		if prevVal >= 0 && basePos-prevVal > s.chainCap {
			break
		}
		pos = prevVal
	}
	return out
}

func max1(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func bitsFor(n int) uint {
	bits := uint(1)
	for (1 << bits) < n {
		bits++
	}
	return bits
}

func bitsForMask(mask uint64) uint {
	bits := uint(0)
	for mask != 0 {
		bits++
		mask >>= 1
	}
	return bits
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
