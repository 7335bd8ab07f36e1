package smdiff

import "testing"

func TestSizeClassOverhead(t *testing.T) {
	cases := map[int]int{1: 0, 62: 0, 63: 1, 317: 1, 318: 2, 65535: 2}
	for size, want := range cases {
		if got := sizeClassOverhead(size); got != want {
			t.Errorf("sizeClassOverhead(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestCopyCostIncreasesWithAddressDeltaSize(t *testing.T) {
	near := copyCost(1000, 1001, 10)
	far := copyCost(1000, 1_000_000, 10)
	if far <= near {
		t.Fatalf("expected a far address delta to cost more: near=%d far=%d", near, far)
	}
}

func TestNetSavingsPrefersLongerMatch(t *testing.T) {
	short := matchCandidate{src: CopyDict, addr: 0, length: 3}
	long := matchCandidate{src: CopyDict, addr: 0, length: 60}
	if long.netSavings(0, 0) <= short.netSavings(0, 0) {
		t.Fatalf("a longer match at the same address should save more: short=%d long=%d",
			short.netSavings(0, 0), long.netSavings(0, 0))
	}
}

func TestExtendMatchVerifiesAndExtends(t *testing.T) {
	a := []byte("xxHELLOxxx")
	b := []byte("yyHELLOyyy")
	pre, post, ok := extendMatch(a, 2, b, 2, 3)
	if !ok {
		t.Fatal("extendMatch should succeed: HEL matches at both positions")
	}
	if pre != 0 {
		t.Fatalf("pre = %d, want 0 (different prefix bytes)", pre)
	}
	if post != 2 {
		t.Fatalf("post = %d, want 2 (LO extends, then diverges)", post)
	}
}

func TestExtendMatchRejectsHashCollision(t *testing.T) {
	a := []byte("abcXYZ")
	b := []byte("defXYZ")
	if _, _, ok := extendMatch(a, 0, b, 0, 3); ok {
		t.Fatal("extendMatch should reject a false hash-window match")
	}
}

func TestExtendMatchForwardNeverReadsPastCurrent(t *testing.T) {
	// "aaaaaa": start=0 and cur=3 both hash-match ("aaa"), and naively
	// extending forward would keep matching ('a'=='a') all the way to the
	// buffer's end, which would make the match read into and past its own
	// still-unwritten tail at cur. maxPost must clamp this to 0.
	buf := []byte("aaaaaa")
	post, ok := extendMatchForward(buf, 0, 3, 3)
	if !ok {
		t.Fatal("extendMatchForward should verify the hash window")
	}
	if post != 0 {
		t.Fatalf("post = %d, want 0 (cur's tail is unwritten, no room to extend)", post)
	}
}
