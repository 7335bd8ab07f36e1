package smdiff

import (
	"bytes"
	"testing"
)

func decodeOpsOnly(t *testing.T, patch []byte) []Op {
	t.Helper()
	sr := NewSectionReader(bytes.NewReader(patch))
	var all []Op
	for {
		ops, _, ok, err := sr.Next()
		if err != nil {
			t.Fatalf("SectionReader.Next: %v", err)
		}
		if !ok {
			break
		}
		all = append(all, ops...)
	}
	return all
}

func TestEncodeApplyRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		source string
		target string
	}{
		{"empty both", "", ""},
		{"pure literal", "", "a brand new target with no shared bytes"},
		{"scenario1", "hello", "Hello! Hello!"},
		{"scenario3", "", "terterst"},
		{"append", "0123456789", "0123456789END"},
		{"prepend", "0123456789", "START0123456789"},
		{"interior edit", "the quick brown fox jumps", "the quick red fox jumps over"},
		{"long run", "", string(bytes.Repeat([]byte{'B'}, 372))},
		{"repetitive", "abcabcabc", "abcabcabcabcabcabcdefabcabcabc"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var source []byte
			if c.source != "" {
				source = []byte(c.source)
			}
			patch, err := Encode(source, []byte(c.target), nil)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := Apply(patch, source, nil)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if string(out) != c.target {
				t.Fatalf("got %q, want %q", out, c.target)
			}
		})
	}
}

func TestEncodePureCompressionMode(t *testing.T) {
	target := []byte("no source dictionary available here at all")
	patch, err := Encode(nil, target, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Apply(patch, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Fatalf("got %q, want %q", out, target)
	}
}

func TestEncodeScenario2RunShape(t *testing.T) {
	target := bytes.Repeat([]byte{'r'}, 128)
	patch, err := Encode(nil, target, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ops := decodeOpsOnly(t, patch)
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3: %+v", len(ops), ops)
	}
	want := []struct{ n uint8 }{{62}, {62}, {4}}
	for i, w := range want {
		if !ops[i].IsRun() || ops[i].Run.Byte != 'r' || ops[i].Run.Len != w.n {
			t.Fatalf("op %d = %+v, want Run{%d,'r'}", i, ops[i], w.n)
		}
	}
	out, err := Apply(patch, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Fatalf("round trip mismatch")
	}
}

func TestEncodeScenario5LongRunShape(t *testing.T) {
	target := bytes.Repeat([]byte{'B'}, 372)
	patch, err := Encode(nil, target, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ops := decodeOpsOnly(t, patch)
	if len(ops) != 4 {
		t.Fatalf("got %d ops, want 4: %+v", len(ops), ops)
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

func TestEncodeNaiveAppendHeuristic(t *testing.T) {
	source := []byte("0123456789")
	target := append(append([]byte{}, source...), []byte("tail")...)
	opts := &EncodeOptions{NaiveTests: NaiveAppend, MatchSource: true, MatchTarget: true}
	patch, err := Encode(source, target, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ops := decodeOpsOnly(t, patch)
	if len(ops) == 0 || !ops[0].IsCopy() || ops[0].Copy.Src != CopyDict || ops[0].Copy.Addr != 0 {
		t.Fatalf("first op = %+v, want Copy{Dict,0,_} from the append heuristic", ops[0])
	}
	out, err := Apply(patch, source, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Fatalf("round trip mismatch")
	}
}

func TestEncodeSectionSplitting(t *testing.T) {
	target := bytes.Repeat([]byte("0123456789"), 100)
	opts := &EncodeOptions{MaxSectionOutput: 64, MatchSource: true, MatchTarget: true, NaiveTests: NaiveOff}
	patch, err := Encode(nil, target, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sr := NewSectionReader(bytes.NewReader(patch))
	sections := 0
	for {
		_, header, ok, err := sr.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		sections++
		if header.OutputSize > 64 {
			t.Fatalf("section output_size %d exceeds cap 64", header.OutputSize)
		}
	}
	if sections < 2 {
		t.Fatalf("got %d sections, want multiple given the 64-byte cap", sections)
	}
	out, err := Apply(patch, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Fatalf("round trip mismatch across sections")
	}
}

func TestEncodeSecondaryCompressionRoundTrip(t *testing.T) {
	target := []byte("some moderately repetitive content content content to compress")
	for _, algo := range []SecondaryCompression{CompressionNone, CompressionNested, CompressionZstd, CompressionBrotli} {
		t.Run(algoName(algo), func(t *testing.T) {
			opts := &EncodeOptions{SecondaryCompression: algo}
			patch, err := Encode(nil, target, opts)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := Apply(patch, nil, nil)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !bytes.Equal(out, target) {
				t.Fatalf("got %q, want %q", out, target)
			}
		})
	}
}

func algoName(a SecondaryCompression) string {
	switch a {
	case CompressionNested:
		return "nested"
	case CompressionZstd:
		return "zstd"
	case CompressionBrotli:
		return "brotli"
	default:
		return "none"
	}
}
