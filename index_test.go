package smdiff

import "testing"

func TestSrcIndexFindsExactMatch(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog")
	idx := newSrcIndex(src, 4, 1, 64)
	idx.seedFrom(0)
	idx.advanceTo(len(src) - 4)

	needle := []byte("brown")
	hasher := newHashCursor(needle, 4)
	hash, ok := hasher.seek(0)
	if !ok {
		t.Fatal("seek on needle failed")
	}
	cand, found := findBestSrcMatch(idx, src, needle, 0, hash, 64)
	if !found {
		t.Fatal("expected to find a match for 'brown'")
	}
	got := string(src[cand.addr : cand.addr+uint64(cand.length)])
	if got != "brown" {
		t.Fatalf("matched %q, want %q", got, "brown")
	}
}

func TestSrcIndexNoMatchForAbsentBytes(t *testing.T) {
	src := []byte("aaaaaaaaaaaaaaaaaaaaaaaa")
	idx := newSrcIndex(src, 4, 1, 64)
	idx.seedFrom(0)
	idx.advanceTo(len(src) - 4)

	needle := []byte("zzzz")
	hasher := newHashCursor(needle, 4)
	hash, _ := hasher.seek(0)
	if _, found := findBestSrcMatch(idx, src, needle, 0, hash, 64); found {
		t.Fatal("expected no match: needle shares no bytes with source")
	}
}

func TestTrgtIndexFindsEarlierOccurrence(t *testing.T) {
	trgt := []byte("abcabcabc")
	idx := newTrgtIndex(trgt, 3, 64)

	// Index everything before position 6 so the match at 6 can find the
	// occurrence at 0 or 3, but never itself.
	idx.advanceTo(6)
	hasher := newDirectHasher(trgt, 3)
	hash, ok := hasher.seek(6)
	if !ok {
		t.Fatal("seek(6) failed")
	}
	cand, found := findBestTrgtMatch(idx, trgt, 6, hash, 64)
	if !found {
		t.Fatal("expected to find an earlier occurrence of 'abc'")
	}
	if cand.addr != 0 && cand.addr != 3 {
		t.Fatalf("match addr = %d, want 0 or 3", cand.addr)
	}
	got := string(trgt[cand.addr : cand.addr+uint64(cand.length)])
	want := string(trgt[6 : 6+cand.length])
	if got != want {
		t.Fatalf("matched bytes %q != source bytes %q", got, want)
	}
}

func TestTrgtIndexNeverMatchesUnindexedFuture(t *testing.T) {
	trgt := []byte("abcabc")
	idx := newTrgtIndex(trgt, 3, 64)
	idx.advanceTo(0) // nothing indexed yet

	hasher := newDirectHasher(trgt, 3)
	hash, _ := hasher.seek(0)
	if _, found := findBestTrgtMatch(idx, trgt, 0, hash, 64); found {
		t.Fatal("position 0 has no prior occurrence to match")
	}
}

func TestNextPow2(t *testing.T) {
	if nextPow2(1) != 1 {
		t.Errorf("nextPow2(1) = %d, want 1", nextPow2(1))
	}
	if nextPow2(5) != 8 {
		t.Errorf("nextPow2(5) = %d, want 8", nextPow2(5))
	}
	if nextPow2(64) != 64 {
		t.Errorf("nextPow2(64) = %d, want 64", nextPow2(64))
	}
}
