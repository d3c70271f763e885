package mpedit

import (
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindArray
	KindMap
	KindExt
)

var kindNames = [...]string{
	KindNil:    "nil",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBinary: "binary",
	KindArray:  "array",
	KindMap:    "map",
	KindExt:    "ext",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindMap
}

// WireFormat is the on-wire variant a scalar was encoded with. Only integers
// and floats carry one; everything else is FormatNone.
type WireFormat uint8

const (
	FormatNone WireFormat = iota
	FormatPosFixint
	FormatNegFixint
	FormatUint8
	FormatUint16
	FormatUint32
	FormatUint64
	FormatInt8
	FormatInt16
	FormatInt32
	FormatInt64
	FormatFloat32
	FormatFloat64
)

var formatNames = [...]string{
	FormatNone:      "none",
	FormatPosFixint: "positive-fixint",
	FormatNegFixint: "negative-fixint",
	FormatUint8:     "uint8",
	FormatUint16:    "uint16",
	FormatUint32:    "uint32",
	FormatUint64:    "uint64",
	FormatInt8:      "int8",
	FormatInt16:     "int16",
	FormatInt32:     "int32",
	FormatInt64:     "int64",
	FormatFloat32:   "float32",
	FormatFloat64:   "float64",
}

func (f WireFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

// Unsigned reports whether the integer value of a node with this format
// lives in Node.Uint rather than Node.Int.
func (f WireFormat) Unsigned() bool {
	switch f {
	case FormatPosFixint, FormatUint8, FormatUint16, FormatUint32, FormatUint64:
		return true
	default:
		return false
	}
}

// Node is a single decoded value together with where it came from.
//
// Byte offsets refer to the decoded buffer, text offsets to the compact text
// produced alongside the tree. Both ranges are half-open and include the
// value's own header (bytes) or delimiters (text).
type Node struct {
	Kind   Kind
	Format WireFormat

	Bool    bool
	Int     int64
	Uint    uint64
	Float   float64
	Str     string
	Bytes   []byte
	ExtType int8

	// Children holds array elements, or key, value, key, value... for maps.
	Children []*Node

	ByteStart int
	ByteEnd   int
	TextStart int
	TextEnd   int

	Path string
}

func (n *Node) ByteLen() int {
	return n.ByteEnd - n.ByteStart
}

func (n *Node) TextLen() int {
	return n.TextEnd - n.TextStart
}

func (n *Node) ContainsByte(off int) bool {
	return n.ByteStart <= off && off < n.ByteEnd
}

func (n *Node) ContainsText(off int) bool {
	return n.TextStart <= off && off < n.TextEnd
}

// Len returns the element count of an array or the pair count of a map.
func (n *Node) Len() int {
	if n.Kind == KindMap {
		return len(n.Children) / 2
	}
	return len(n.Children)
}

// Pair returns the i-th key and value of a map node.
func (n *Node) Pair(i int) (key, value *Node) {
	return n.Children[2*i], n.Children[2*i+1]
}

// Walk visits n and its descendants in decode order. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(n *Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// IntText returns the decimal form of an integer node's value.
func (n *Node) IntText() string {
	if n.Format.Unsigned() {
		return strconv.FormatUint(n.Uint, 10)
	}
	return strconv.FormatInt(n.Int, 10)
}

// Equal compares kinds, formats and values of two trees, ignoring ranges
// and paths.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind || n.Format != o.Format || len(n.Children) != len(o.Children) {
		return false
	}
	switch n.Kind {
	case KindBool:
		if n.Bool != o.Bool {
			return false
		}
	case KindInt:
		if n.Int != o.Int || n.Uint != o.Uint {
			return false
		}
	case KindFloat:
		if n.Float != o.Float && !(n.Float != n.Float && o.Float != o.Float) {
			return false
		}
	case KindString:
		if n.Str != o.Str {
			return false
		}
	case KindBinary:
		if string(n.Bytes) != string(o.Bytes) {
			return false
		}
	case KindExt:
		if n.ExtType != o.ExtType || string(n.Bytes) != string(o.Bytes) {
			return false
		}
	}
	for i, c := range n.Children {
		if !c.Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func childPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func fieldPath(parent string, key *Node) string {
	if key.Kind == KindString && isPlainIdent(key.Str) {
		return parent + "." + key.Str
	}
	var buf strings.Builder
	buf.WriteString(parent)
	buf.WriteByte('[')
	switch key.Kind {
	case KindString:
		buf.WriteString(strconv.Quote(key.Str))
	case KindInt:
		buf.WriteString(key.IntText())
	default:
		buf.WriteString(key.Kind.String())
	}
	buf.WriteByte(']')
	return buf.String()
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}
