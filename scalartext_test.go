package mpedit

import (
	"encoding/json"
	"math"
	"testing"
)

func TestAppendQuoted(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{`a"b\c`, `"a\"b\\c"`},
		{"tab\tnl\ncr\r", `"tab\tnl\ncr\r"`},
		{"\x00\x1f", `"\u0000\u001f"`},
		{"\b\f", `"\b\f"`},
		{"héllo", `"héllo"`},
		{"\xffx\xfe", "\"�x�\""},
		{"\u2028x\u2029", `"\u2028x\u2029"`},
	}
	for _, tt := range tests {
		got := string(appendQuoted(nil, tt.in))
		if got != tt.want {
			t.Errorf("appendQuoted(%q) = %s, wanted %s", tt.in, got, tt.want)
		}
		var back string
		if err := json.Unmarshal([]byte(got), &back); err != nil {
			t.Errorf("appendQuoted(%q) = %s is not valid text: %v", tt.in, got, err)
		} else if back != displayString(tt.in) {
			t.Errorf("appendQuoted(%q) reads back as %q, wanted %q", tt.in, back, displayString(tt.in))
		}
	}
}

func TestDisplayString(t *testing.T) {
	if got := displayString("ok"); got != "ok" {
		t.Fatalf("displayString(ok) = %q", got)
	}
	if got := displayString("a\xffb"); got != "a�b" {
		t.Fatalf("displayString = %q, wanted %q", got, "a�b")
	}
}

func TestAppendFloat(t *testing.T) {
	tests := []struct {
		f    float64
		bits int
		want string
	}{
		{0, 64, "0.0"},
		{1, 64, "1.0"},
		{-2, 64, "-2.0"},
		{1.5, 64, "1.5"},
		{0.1, 64, "0.1"},
		{float64(float32(0.1)), 32, "0.1"},
		{float64(float32(0.1)), 64, "0.10000000149011612"},
		{1e20, 64, "100000000000000000000.0"},
		{1e21, 64, "1e+21"},
		{1e-7, 64, "1e-7"},
		{1.5e-10, 64, "1.5e-10"},
		{0.000001, 64, "0.000001"},
		{math.NaN(), 64, `"NaN"`},
		{math.Inf(1), 32, `"Infinity"`},
		{math.Inf(-1), 64, `"-Infinity"`},
	}
	for _, tt := range tests {
		got := string(appendFloat(nil, tt.f, tt.bits))
		if got != tt.want {
			t.Errorf("appendFloat(%v, %d) = %s, wanted %s", tt.f, tt.bits, got, tt.want)
		}
		if math.IsNaN(tt.f) || math.IsInf(tt.f, 0) {
			continue
		}
		back, err := parseFloatText(got, tt.bits)
		if err != nil || back != tt.f {
			t.Errorf("parseFloatText(%s, %d) = %v, %v, wanted %v", got, tt.bits, back, err, tt.f)
		}
	}
}

func TestParseFloatText_NonFinite(t *testing.T) {
	if f, err := parseFloatText(textNaN, 64); err != nil || !math.IsNaN(f) {
		t.Fatalf("parseFloatText(NaN) = %v, %v", f, err)
	}
	if f, err := parseFloatText(textNegInf, 32); err != nil || !math.IsInf(f, -1) {
		t.Fatalf("parseFloatText(-Infinity) = %v, %v", f, err)
	}
}

func TestAppendKey(t *testing.T) {
	tests := []struct {
		n    *Node
		want string
	}{
		{&Node{Kind: KindString, Str: "k"}, `"k"`},
		{&Node{Kind: KindInt, Format: FormatPosFixint, Uint: 7}, `"7"`},
		{&Node{Kind: KindInt, Format: FormatInt8, Int: -7}, `"-7"`},
		{&Node{Kind: KindNil}, `"null"`},
		{&Node{Kind: KindBool, Bool: true}, `"true"`},
		{&Node{Kind: KindFloat, Format: FormatFloat64, Float: 2}, `"2.0"`},
		{&Node{Kind: KindFloat, Format: FormatFloat64, Float: math.Inf(1)}, `"Infinity"`},
		{&Node{Kind: KindBinary, Bytes: []byte{0xff}}, `"/w=="`},
		{&Node{Kind: KindExt, ExtType: -1, Bytes: nil}, `"ext(-1,)"`},
	}
	for _, tt := range tests {
		if got := string(appendKey(nil, tt.n)); got != tt.want {
			t.Errorf("appendKey(%v) = %s, wanted %s", tt.n.Kind, got, tt.want)
		}
	}
}

func TestAppendScalar_PanicsOnContainer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	appendScalar(nil, &Node{Kind: KindArray})
}

func TestAppendCompact(t *testing.T) {
	for _, h := range []string{
		"82 a1 61 92 cd 00 05 c3 a1 62 c4 01 00",
		"81 91 01 02",
		"81 81 91 a1 22 c0 92 ca 3f c0 00 00 d4 05 01",
		"93 a3 e2 80 a8 c0 80",
	} {
		tree := must(Decode(hx(h)))
		if got := string(appendCompact(nil, tree.Root)); got != tree.Text {
			t.Errorf("appendCompact(%s) = %s, wanted %s", h, got, tree.Text)
		}
	}
}
