package mpedit

import (
	"bytes"
	"testing"
)

func TestDump(t *testing.T) {
	tree := must(Decode(hx("82 a1 61 92 cd 00 05 c3 a1 62 c4 01 00")))

	got := DumpString(tree.Root, DumpValues)
	want := `map (2 pairs)
  string = "a"
  array (2 items)
    int/uint16 = 5
    bool = true
  string = "b"
  binary = "AA=="
`
	if got != want {
		t.Fatalf("DumpString(values) =\n%s\nwanted:\n%s", got, want)
	}

	got = DumpString(tree.Root, DumpRanges|DumpPaths)
	want = `map bytes=0..13 text=0..25 $
  string bytes=1..3 text=1..4 $.a#key
  array bytes=3..8 text=5..13 $.a
    int/uint16 bytes=4..7 text=6..7 $.a[0]
    bool bytes=7..8 text=8..12 $.a[1]
  string bytes=8..10 text=14..17 $.b#key
  binary bytes=10..13 text=18..24 $.b
`
	if got != want {
		t.Fatalf("DumpString(ranges|paths) =\n%s\nwanted:\n%s", got, want)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, tree.Root, DumpAll); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if buf.String() != DumpString(tree.Root, DumpAll) {
		t.Fatalf("Dump and DumpString disagree")
	}
}

func TestDumpFlags_Contains(t *testing.T) {
	f := DumpRanges | DumpPaths
	if !f.Contains(DumpRanges) || !f.Contains(DumpPaths) || f.Contains(DumpValues) {
		t.Fatalf("Contains is wrong for %b", f)
	}
	if !DumpAll.Contains(DumpRanges | DumpValues | DumpPaths) {
		t.Fatalf("DumpAll does not contain every flag")
	}
}
