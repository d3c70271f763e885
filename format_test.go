package mpedit

import (
	"errors"
	"testing"
)

var formatSamples = []string{
	`null`,
	`123`,
	`"a b"`,
	`[]`,
	`{}`,
	`[1,2,3]`,
	`{"a":[1,2],"b":{}}`,
	`{"name":"test","value":123}`,
	`{"s":"quote \" and ,:[]{} inside","n":[[],[{}],[1.5,"x\\"]]}`,
	`{"[1]":2,"NaN":"ext(5,AQ==)"}`,
}

func TestFormat_Indent(t *testing.T) {
	got, _, err := Format(`{"a":[1,2],"b":{}}`)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": {}\n}"
	if got != want {
		t.Fatalf("Format = %q, wanted %q", got, want)
	}
}

func TestFormat_PositionTable(t *testing.T) {
	for _, compact := range formatSamples {
		formatted, pt, err := Format(compact)
		if err != nil {
			t.Fatalf("Format(%s): %v", compact, err)
		}
		if len(pt) != len(compact)+1 {
			t.Fatalf("Format(%s): len(pt) = %d, wanted %d", compact, len(pt), len(compact)+1)
		}
		if pt[len(compact)] != len(formatted) {
			t.Fatalf("Format(%s): pt[end] = %d, wanted %d", compact, pt[len(compact)], len(formatted))
		}
		for i := range compact {
			if i > 0 && pt[i] < pt[i-1] {
				t.Fatalf("Format(%s): pt[%d] = %d < pt[%d] = %d", compact, i, pt[i], i-1, pt[i-1])
			}
			if formatted[pt[i]] != compact[i] {
				t.Fatalf("Format(%s): compact[%d] = %q maps to formatted[%d] = %q", compact, i, compact[i], pt[i], formatted[pt[i]])
			}
		}

		back, err := Compact(formatted)
		if err != nil {
			t.Fatalf("Compact: %v", err)
		}
		if back != compact {
			t.Fatalf("Compact(Format(%s)) = %s", compact, back)
		}
	}
}

func TestFormat_Idempotent(t *testing.T) {
	for _, compact := range formatSamples {
		once, _, err := Format(compact)
		if err != nil {
			t.Fatalf("Format: %v", err)
		}
		c := must(Compact(once))
		twice, _, err := Format(c)
		if err != nil {
			t.Fatalf("Format: %v", err)
		}
		if once != twice {
			t.Fatalf("Format is not stable for %s:\n%s\nvs\n%s", compact, once, twice)
		}
	}
}

func TestFormat_DecodedRanges(t *testing.T) {
	tree := must(Decode(hx("82 a1 61 93 01 a1 78 c0 a1 62 80")))
	formatted, pt, err := Format(tree.Text)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, n := range tree.Nodes {
		compactTok := tree.Text[n.TextStart:n.TextEnd]
		fs, fe := pt.ToFormatted(n.TextStart), pt.ToFormatted(n.TextEnd)
		got := must(Compact(formatted[fs:fe]))
		if got != compactTok {
			t.Fatalf("%s: formatted range %q compacts to %q, wanted %q", n.Path, formatted[fs:fe], got, compactTok)
		}
	}
}

func TestPositionTable_ToCompact(t *testing.T) {
	compact := `{"a":[1,2]}`
	formatted, pt := must2(Format(compact))
	// formatted: {\n  "a": [\n    1,\n    2\n  ]\n}
	tests := []struct {
		off  int
		want int
	}{
		{0, 0},  // {
		{1, 1},  // newline before "a" lands on "a"
		{2, 1},  // indentation
		{4, 1},  // opening quote of "a"
		{5, 2},  // a
		{8, 5},  // space after colon lands on [
		{9, 5},  // [
		{15, 6}, // 1
		{len(formatted), len(compact)},
		{len(formatted) + 10, len(compact)},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := pt.ToCompact(tt.off); got != tt.want {
			t.Errorf("ToCompact(%d) = %d, wanted %d", tt.off, got, tt.want)
		}
	}
	if got := pt.ToFormatted(-5); got != 0 {
		t.Fatalf("ToFormatted(-5) = %d, wanted 0", got)
	}
	if got := pt.ToFormatted(100); got != len(formatted) {
		t.Fatalf("ToFormatted(100) = %d, wanted %d", got, len(formatted))
	}
}

func TestMapPositions_SpacedCompact(t *testing.T) {
	compact := `[1, 2]`
	formatted := "[\n  1,\n  2\n]"
	pt := mapPositions(compact, formatted)
	want := PositionTable{0, 4, 5, 6, 9, 11, 12}
	if len(pt) != len(want) {
		t.Fatalf("mapPositions = %v, wanted %v", pt, want)
	}
	for i := range want {
		if pt[i] != want[i] {
			t.Fatalf("mapPositions = %v, wanted %v", pt, want)
		}
	}
}

func TestFormat_SyntaxError(t *testing.T) {
	_, _, err := Format(`{"a":}`)
	var se *TextSyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("Format err = %T %v, wanted *TextSyntaxError", err, err)
	}
	if se.Offset < 5 || se.Offset > 6 {
		t.Fatalf("Offset = %d, wanted the position of the closing brace", se.Offset)
	}
	_, err = Compact(`[1,`)
	if !errors.As(err, &se) {
		t.Fatalf("Compact err = %T %v, wanted *TextSyntaxError", err, err)
	}
}

func must2[A, B any](a A, b B, err error) (A, B) {
	if err != nil {
		panic(err)
	}
	return a, b
}
