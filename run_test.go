package smdiff

import "testing"

func TestDetectRun(t *testing.T) {
	cases := []struct {
		buf    string
		b      byte
		length int
	}{
		{"", 0, 0},
		{"a", 'a', 1},
		{"aab", 'a', 2},
		{"aaaa", 'a', 4},
		{"abaaa", 'a', 1},
	}
	for _, c := range cases {
		b, length := detectRun([]byte(c.buf))
		if b != c.b || length != c.length {
			t.Errorf("detectRun(%q) = (%q, %d), want (%q, %d)", c.buf, b, length, c.b, c.length)
		}
	}
}

func totalOal(ops []Op) int {
	n := 0
	for _, op := range ops {
		n += int(op.oal())
	}
	return n
}

func TestEmitRunOpsShort(t *testing.T) {
	ops := emitRunOps('r', 120, 0, nil)
	if totalOal(ops) != 120 {
		t.Fatalf("total oal = %d, want 120", totalOal(ops))
	}
	for _, op := range ops {
		if !op.IsRun() {
			t.Fatalf("expected only Run ops below runLimit, got %+v", op)
		}
	}
}

func TestEmitRunOpsAtLimit(t *testing.T) {
	ops := emitRunOps('B', 372, 0, nil)
	if totalOal(ops) != 372 {
		t.Fatalf("total oal = %d, want 372", totalOal(ops))
	}
	if len(ops) != 4 {
		t.Fatalf("got %d ops, want 4 (three Runs + one Copy)", len(ops))
	}
	for i := 0; i < 3; i++ {
		if !ops[i].IsRun() || ops[i].Run.Len != 62 || ops[i].Run.Byte != 'B' {
			t.Fatalf("op %d = %+v, want Run{62,'B'}", i, ops[i])
		}
	}
	last := ops[3]
	if !last.IsCopy() || last.Copy.Src != CopyOutput || last.Copy.Addr != 0 || last.Copy.Len != 186 {
		t.Fatalf("op 3 = %+v, want Copy{Output,0,186}", last)
	}
}

func TestEmitRunOpsAbove372(t *testing.T) {
	for _, length := range []int{472, 414} {
		ops := emitRunOps('z', length, 100, nil)
		if totalOal(ops) != length {
			t.Fatalf("length %d: total oal = %d", length, totalOal(ops))
		}
		for i := 0; i < 3; i++ {
			if !ops[i].IsRun() || ops[i].Run.Len != 62 {
				t.Fatalf("length %d: op %d = %+v, want Run{62,_}", length, i, ops[i])
			}
		}
		for _, op := range ops[3:] {
			if !op.IsCopy() || op.Copy.Src != CopyOutput || op.Copy.Addr != 100 {
				t.Fatalf("length %d: op %+v, want Copy{Output,100,_}", length, op)
			}
			if op.Copy.Len > copyLimit {
				t.Fatalf("length %d: Copy.Len %d exceeds copyLimit %d", length, op.Copy.Len, copyLimit)
			}
		}
	}
}

func TestEmitRunOpsRoundTrip(t *testing.T) {
	for _, length := range []int{3, 61, 62, 63, 186, 371, 372, 373, 500, 1000} {
		ops := emitRunOps('q', length, 0, nil)
		header := SectionHeader{Format: Interleaved, NumOperations: uint32(len(ops)), OutputSize: uint32(totalOal(ops))}
		patch := sectionBytes(t, ops, header)
		out, err := Apply(patch, nil, nil)
		if err != nil {
			t.Fatalf("length %d: Apply: %v", length, err)
		}
		if len(out) != length {
			t.Fatalf("length %d: got %d bytes", length, len(out))
		}
		for _, b := range out {
			if b != 'q' {
				t.Fatalf("length %d: expected all 'q'", length)
			}
		}
	}
}
