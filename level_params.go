package smdiff

// matchLevelParams holds internal parameters for one compression level.
// All fields are unexported; the type is used only inside the package.
type matchLevelParams struct {
	lStep      uint // stride between indexed source positions
	chainCheck uint // max hash-chain entries walked per lookup (1-10)
}

// fixedLevels defines parameters for compression levels 0-9. Level 0 indexes
// sparsely and walks short chains (fast, weak compression); level 9 indexes
// densely and walks long chains (slow, strong compression). The hash window
// length is derived from buffer size, not level (see hashWindowLenFor).
var fixedLevels = [10]matchLevelParams{
	{lStep: 16, chainCheck: 1},
	{lStep: 12, chainCheck: 1},
	{lStep: 8, chainCheck: 2},
	{lStep: 6, chainCheck: 2},
	{lStep: 4, chainCheck: 3},
	{lStep: 3, chainCheck: 4},
	{lStep: 2, chainCheck: 5},
	{lStep: 1, chainCheck: 6},
	{lStep: 1, chainCheck: 8},
	{lStep: 1, chainCheck: 10},
}

// hashWindowLenFor picks L_src per the source length, independent of the
// configured level (the level only tunes lStep/chainCheck).
func hashWindowLenFor(srcLen int) uint {
	switch {
	case srcLen <= 127:
		return 3
	case srcLen <= 16*1024:
		return 4
	case srcLen <= 2*1024*1024:
		return 5
	case srcLen <= 7*1024*1024:
		return 6
	case srcLen <= 23*1024*1024:
		return 7
	case srcLen <= 79*1024*1024:
		return 8
	default:
		return 9
	}
}
