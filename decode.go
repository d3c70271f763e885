package mpedit

import (
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MaxDepth is the most containers that may be nested inside each other. It
// stays well below the nesting limit of encoding/json, which Format and
// Rebuild run the text through.
const MaxDepth = 1000

// Tree is one decoded buffer: the node tree, its compact text, and every node
// in decode order.
type Tree struct {
	Data  []byte
	Text  string
	Root  *Node
	Nodes []*Node
}

// Decode parses a single MessagePack value that must span all of data.
//
// Nodes reference data for binary and extension payloads, so data must not
// be modified while the tree is in use.
func Decode(data []byte) (*Tree, error) {
	d := decoder{
		byteDecoder: makeByteDecoder(data),
		text:        getTextBytes(),
	}
	defer func() {
		releaseTextBytes(d.text)
	}()
	root, err := d.value("$", 0, false)
	if err != nil {
		return nil, err
	}
	if d.Remaining() > 0 {
		return nil, decodeErrf(data, d.Off(), ErrTrailingData, "%d bytes after root value", d.Remaining())
	}
	return &Tree{
		Data:  data,
		Text:  string(d.text),
		Root:  root,
		Nodes: d.nodes,
	}, nil
}

type decoder struct {
	byteDecoder
	text  []byte
	nodes []*Node
}

func (d *decoder) value(path string, depth int, key bool) (*Node, error) {
	if depth >= MaxDepth && d.Remaining() > 0 && isContainerCode(d.Buf[0]) {
		return nil, decodeErrf(d.Orig, d.Off(), ErrTooDeep, "more than %d nested containers", MaxDepth)
	}
	if key && d.Remaining() > 0 && isContainerCode(d.Buf[0]) {
		return d.containerKey(path, depth)
	}

	n := &Node{
		ByteStart: d.Off(),
		TextStart: len(d.text),
		Path:      path,
	}
	d.nodes = append(d.nodes, n)

	err := d.fill(n, depth)
	if err != nil {
		return nil, err
	}
	if !n.Kind.IsContainer() {
		if key {
			d.text = appendKey(d.text, n)
		} else {
			d.text = appendScalar(d.text, n)
		}
	}

	n.ByteEnd = d.Off()
	n.TextEnd = len(d.text)
	return n, nil
}

// containerKey decodes an array or map used as a map key. The text needs a
// string there, so the key's compact text is emitted as a quoted literal, and
// the key and all of its descendants share that literal's text range.
func (d *decoder) containerKey(path string, depth int) (*Node, error) {
	outer := d.text
	first := len(d.nodes)
	d.text = nil
	n, err := d.value(path, depth, false)
	if err != nil {
		return nil, err
	}
	inner := d.text
	start := len(outer)
	d.text = appendQuoted(outer, string(inner))
	for _, c := range d.nodes[first:] {
		c.TextStart, c.TextEnd = start, len(d.text)
	}
	return n, nil
}

func (d *decoder) fill(n *Node, depth int) error {
	codeOff := d.Off()
	c, err := d.Byte()
	if err != nil {
		return err
	}

	switch {
	case c <= msgpcode.PosFixedNumHigh:
		n.Kind, n.Format, n.Uint = KindInt, FormatPosFixint, uint64(c)
		return nil
	case c >= msgpcode.NegFixedNumLow:
		n.Kind, n.Format, n.Int = KindInt, FormatNegFixint, int64(int8(c))
		return nil
	case msgpcode.IsFixedMap(c):
		return d.mapBody(n, int(c&msgpcode.FixedMapMask), depth)
	case msgpcode.IsFixedArray(c):
		return d.arrayBody(n, int(c&msgpcode.FixedArrayMask), depth)
	case msgpcode.IsFixedString(c):
		return d.str(n, int(c&msgpcode.FixedStrMask))
	}

	switch c {
	case msgpcode.Nil:
		n.Kind = KindNil
	case msgpcode.False, msgpcode.True:
		n.Kind, n.Bool = KindBool, c == msgpcode.True

	case msgpcode.Bin8:
		return d.bin(n, 1)
	case msgpcode.Bin16:
		return d.bin(n, 2)
	case msgpcode.Bin32:
		return d.bin(n, 4)

	case msgpcode.Ext8:
		return d.ext(n, 1, -1)
	case msgpcode.Ext16:
		return d.ext(n, 2, -1)
	case msgpcode.Ext32:
		return d.ext(n, 4, -1)
	case msgpcode.FixExt1:
		return d.ext(n, 0, 1)
	case msgpcode.FixExt2:
		return d.ext(n, 0, 2)
	case msgpcode.FixExt4:
		return d.ext(n, 0, 4)
	case msgpcode.FixExt8:
		return d.ext(n, 0, 8)
	case msgpcode.FixExt16:
		return d.ext(n, 0, 16)

	case msgpcode.Float:
		v, err := d.Uint32()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Float = KindFloat, FormatFloat32, float64(math.Float32frombits(v))
	case msgpcode.Double:
		v, err := d.Uint64()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Float = KindFloat, FormatFloat64, math.Float64frombits(v)

	case msgpcode.Uint8:
		v, err := d.Uint8()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Uint = KindInt, FormatUint8, uint64(v)
	case msgpcode.Uint16:
		v, err := d.Uint16()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Uint = KindInt, FormatUint16, uint64(v)
	case msgpcode.Uint32:
		v, err := d.Uint32()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Uint = KindInt, FormatUint32, uint64(v)
	case msgpcode.Uint64:
		v, err := d.Uint64()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Uint = KindInt, FormatUint64, v

	case msgpcode.Int8:
		v, err := d.Uint8()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Int = KindInt, FormatInt8, int64(int8(v))
	case msgpcode.Int16:
		v, err := d.Uint16()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Int = KindInt, FormatInt16, int64(int16(v))
	case msgpcode.Int32:
		v, err := d.Uint32()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Int = KindInt, FormatInt32, int64(int32(v))
	case msgpcode.Int64:
		v, err := d.Uint64()
		if err != nil {
			return err
		}
		n.Kind, n.Format, n.Int = KindInt, FormatInt64, int64(v)

	case msgpcode.Str8:
		return d.strWithLen(n, 1)
	case msgpcode.Str16:
		return d.strWithLen(n, 2)
	case msgpcode.Str32:
		return d.strWithLen(n, 4)

	case msgpcode.Array16, msgpcode.Array32:
		count, err := d.Len(lenWidth(c == msgpcode.Array16))
		if err != nil {
			return err
		}
		return d.arrayBody(n, count, depth)
	case msgpcode.Map16, msgpcode.Map32:
		count, err := d.Len(lenWidth(c == msgpcode.Map16))
		if err != nil {
			return err
		}
		return d.mapBody(n, count, depth)

	default:
		return decodeErrf(d.Orig, codeOff, ErrUnknownCode, "code %#02x", c)
	}
	return nil
}

func lenWidth(short bool) int {
	if short {
		return 2
	}
	return 4
}

func (d *decoder) str(n *Node, size int) error {
	payload, err := d.Raw(size)
	if err != nil {
		return err
	}
	n.Kind, n.Str = KindString, string(payload)
	return nil
}

func (d *decoder) strWithLen(n *Node, width int) error {
	size, err := d.Len(width)
	if err != nil {
		return err
	}
	return d.str(n, size)
}

func (d *decoder) bin(n *Node, width int) error {
	size, err := d.Len(width)
	if err != nil {
		return err
	}
	payload, err := d.Raw(size)
	if err != nil {
		return err
	}
	n.Kind, n.Bytes = KindBinary, payload
	return nil
}

// ext decodes an extension. Variable-length forms pass the width of their
// length prefix and size -1; fixext forms pass width 0 and their fixed size.
func (d *decoder) ext(n *Node, width int, size int) error {
	if width > 0 {
		var err error
		size, err = d.Len(width)
		if err != nil {
			return err
		}
	}
	typ, err := d.Uint8()
	if err != nil {
		return err
	}
	payload, err := d.Raw(size)
	if err != nil {
		return err
	}
	n.Kind, n.ExtType, n.Bytes = KindExt, int8(typ), payload
	return nil
}

func (d *decoder) arrayBody(n *Node, count int, depth int) error {
	n.Kind = KindArray
	// every element takes at least one byte
	n.Children = make([]*Node, 0, min(count, d.Remaining()))
	d.text = append(d.text, '[')
	for i := 0; i < count; i++ {
		if i > 0 {
			d.text = append(d.text, ',')
		}
		c, err := d.value(childPath(n.Path, i), depth+1, false)
		if err != nil {
			return err
		}
		n.Children = append(n.Children, c)
	}
	d.text = append(d.text, ']')
	return nil
}

func (d *decoder) mapBody(n *Node, count int, depth int) error {
	n.Kind = KindMap
	n.Children = make([]*Node, 0, 2*min(count, d.Remaining()/2))
	d.text = append(d.text, '{')
	for i := 0; i < count; i++ {
		if i > 0 {
			d.text = append(d.text, ',')
		}
		k, err := d.value(n.Path+"{"+strconv.Itoa(i)+"}", depth+1, true)
		if err != nil {
			return err
		}
		valuePath := fieldPath(n.Path, k)
		k.Path = valuePath + "#key"
		d.text = append(d.text, ':')
		v, err := d.value(valuePath, depth+1, false)
		if err != nil {
			return err
		}
		n.Children = append(n.Children, k, v)
	}
	d.text = append(d.text, '}')
	return nil
}

func isContainerCode(c byte) bool {
	return msgpcode.IsFixedMap(c) || msgpcode.IsFixedArray(c) ||
		c == msgpcode.Array16 || c == msgpcode.Array32 ||
		c == msgpcode.Map16 || c == msgpcode.Map32
}
