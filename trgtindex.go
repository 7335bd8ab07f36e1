package smdiff

// trgtIndex indexes the target buffer built so far, so copy-from-output
// matches can be found the same way copy-from-source matches are: a direct
// hash over a short window (3-4 bytes) with the same ring-chain collision
// structure as srcIndex.
type trgtIndex struct {
	trgt     []byte
	hasher   *directHasher
	hashLen  int
	chainCap int

	tableMask uint64
	head      []int32
	next      []int32
}

func newTrgtIndex(trgt []byte, hashLen, chainCapHint int) *trgtIndex {
	tableBits := bitsFor(max1(len(trgt), 16))
	chainCap := nextPow2(max1(chainCapHint, 64))
	return &trgtIndex{
		trgt:      trgt,
		hasher:    newDirectHasher(trgt, hashLen),
		hashLen:   hashLen,
		chainCap:  chainCap,
		tableMask: (uint64(1) << tableBits) - 1,
		head:      make([]int32, 1<<tableBits),
		next:      make([]int32, chainCap),
	}
}

func (t *trgtIndex) bucket(hash uint64) int {
	shift := uint(64 - bitsForMask(t.tableMask))
	return int((hash>>shift ^ hash) & t.tableMask)
}

func (t *trgtIndex) store(hash uint64, pos int) {
	b := t.bucket(hash)
	ring := pos % t.chainCap
	t.next[ring] = t.head[b]
	t.head[b] = int32(pos + 1)
}

// advanceTo indexes every position up to (but not including) pos, one byte
// at a time, since matches against the output-so-far need dense coverage.
func (t *trgtIndex) advanceTo(pos int) {
	maxStart := len(t.trgt) - t.hashLen
	for t.hasher.curPos() < pos && t.hasher.curPos() <= maxStart {
		hash, p, ok := t.hasher.next()
		if !ok {
			return
		}
		t.store(hash, p)
	}
}

func (t *trgtIndex) candidates(hash uint64, maxChecks int) []int {
	b := t.bucket(hash)
	pos := int(t.head[b]) - 1
	var out []int
	checks := 0
	basePos := pos
	for pos >= 0 && checks < maxChecks {
		out = append(out, pos)
		checks++
		ring := pos % t.chainCap
		prevVal := int(t.next[ring]) - 1
		if prevVal >= 0 && basePos-prevVal > t.chainCap {
			break
		}
		pos = prevVal
	}
	return out
}
