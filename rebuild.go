package mpedit

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// Rebuild turns edited text back into MessagePack.
//
// It walks the edited value alongside orig, the tree decoded from data, and
// reuses each original wire format wherever the edited value still allows
// it. If the shapes diverge, or orig is nil, the whole value is encoded from
// scratch instead (see EncodeText). The only error is a *TextSyntaxError for
// text that does not parse at all.
func Rebuild(edited string, orig *Node, data []byte) ([]byte, error) {
	v, err := parseText(edited)
	if err != nil {
		return nil, err
	}
	if orig != nil {
		out, err := rebuildValue(v, orig, data)
		if err == nil {
			return out, nil
		}
	}
	return encodeGeneric(v)
}

// RebuildStrict is Rebuild without the from-scratch fallback: a shape
// mismatch is returned as a *StructureMismatchError.
func RebuildStrict(edited string, orig *Node, data []byte) ([]byte, error) {
	if orig == nil {
		return nil, errors.New("rebuild: no original tree")
	}
	v, err := parseText(edited)
	if err != nil {
		return nil, err
	}
	return rebuildValue(v, orig, data)
}

type rebuilder struct {
	data []byte
	bb   bytesBuilder
	enc  *msgpack.Encoder
}

func rebuildValue(v *textValue, orig *Node, data []byte) ([]byte, error) {
	rb := &rebuilder{data: data}
	rb.bb.Buf = make([]byte, 0, len(data)+16)
	err := withEncoder(&rb.bb, func(enc *msgpack.Encoder) error {
		rb.enc = enc
		return rb.node(v, orig, false)
	})
	if err != nil {
		return nil, err
	}
	return rb.bb.Buf, nil
}

// node writes v using n as the template. key is set for map keys, whose
// edited value always arrives as a text literal.
func (rb *rebuilder) node(v *textValue, n *Node, key bool) error {
	switch n.Kind {
	case KindNil:
		if v.kind == textNull || key && v.kind == textString && v.str == "null" {
			return rb.enc.EncodeNil()
		}
		return mismatchf(n, v.kind.String(), "")

	case KindBool:
		switch {
		case v.kind == textBool:
			return rb.enc.EncodeBool(v.bool)
		case v.kind == textString && (v.str == "true" || v.str == "false"):
			return rb.enc.EncodeBool(v.str == "true")
		}
		return mismatchf(n, v.kind.String(), "")

	case KindInt:
		return rb.integer(v, n, key)

	case KindFloat:
		return rb.float(v, n, key)

	case KindString:
		if v.kind != textString {
			return mismatchf(n, v.kind.String(), "")
		}
		if v.str == displayString(n.Str) {
			return rb.copyOrig(n)
		}
		return rb.enc.EncodeString(v.str)

	case KindBinary:
		if v.kind != textString {
			return mismatchf(n, v.kind.String(), "")
		}
		b, err := base64.StdEncoding.DecodeString(v.str)
		if err != nil {
			return mismatchf(n, "text", "invalid base64: %v", err)
		}
		if string(b) == string(n.Bytes) {
			return rb.copyOrig(n)
		}
		err = rb.enc.EncodeBytesLen(len(b))
		if err != nil {
			return err
		}
		_, err = rb.bb.Write(b)
		return err

	case KindExt:
		if v.kind != textString {
			return mismatchf(n, v.kind.String(), "")
		}
		if rb.hasOrig(n) {
			return rb.copyOrig(n)
		}
		err := rb.enc.EncodeExtHeader(n.ExtType, len(n.Bytes))
		if err != nil {
			return err
		}
		_, err = rb.bb.Write(n.Bytes)
		return err

	case KindArray:
		if key {
			return rb.containerKey(v, n)
		}
		if v.kind != textArray {
			return mismatchf(n, v.kind.String(), "")
		}
		if len(v.items) != len(n.Children) {
			return mismatchf(n, "array", "%d elements instead of %d", len(v.items), len(n.Children))
		}
		err := rb.copyHeader(n)
		if err != nil {
			return err
		}
		for i, item := range v.items {
			err = rb.node(item, n.Children[i], false)
			if err != nil {
				return err
			}
		}
		return nil

	case KindMap:
		if key {
			return rb.containerKey(v, n)
		}
		if v.kind != textObject {
			return mismatchf(n, v.kind.String(), "")
		}
		if len(v.items) != n.Len() {
			return mismatchf(n, "object", "%d pairs instead of %d", len(v.items), n.Len())
		}
		err := rb.copyHeader(n)
		if err != nil {
			return err
		}
		for i, item := range v.items {
			k, val := n.Pair(i)
			// the original key node decides how the edited key is typed
			err = rb.node(&textValue{kind: textString, str: v.keys[i]}, k, true)
			if err != nil {
				return err
			}
			err = rb.node(item, val, false)
			if err != nil {
				return err
			}
		}
		return nil

	default:
		return mismatchf(n, v.kind.String(), "unknown node kind")
	}
}

// containerKey handles an array or map used as a map key. The text only
// shows it as a quoted literal, so any change to that literal is a mismatch.
func (rb *rebuilder) containerKey(v *textValue, n *Node) error {
	if v.str != string(appendCompact(nil, n)) {
		return mismatchf(n, "text", "container key edited")
	}
	return rb.copyOrig(n)
}

func (rb *rebuilder) integer(v *textValue, n *Node, key bool) error {
	if !(v.kind == textNumber || key && v.kind == textString) {
		return mismatchf(n, v.kind.String(), "")
	}
	s, _ := v.scalarText()
	iv, ok := parseIntText(s)
	if !ok {
		return mismatchf(n, v.kind.String(), "%q is not an integer", s)
	}
	ok, err := encodeIntAs(rb.enc, &rb.bb, n.Format, iv)
	if ok || err != nil {
		return err
	}
	// no longer fits the original width
	return encodeIntMinimal(rb.enc, iv)
}

func (rb *rebuilder) float(v *textValue, n *Node, key bool) error {
	s, _ := v.scalarText()
	switch {
	case v.kind == textNumber:
	case v.kind == textString && (key || s == textNaN || s == textPosInf || s == textNegInf):
	default:
		return mismatchf(n, v.kind.String(), "")
	}
	if s == textNaN && math.IsNaN(n.Float) && rb.hasOrig(n) {
		// keeps the original NaN payload bits
		return rb.copyOrig(n)
	}

	if n.Format == FormatFloat32 {
		f, err := parseFloatText(s, 32)
		if err == nil {
			return rb.enc.EncodeFloat32(float32(f))
		}
		if !errors.Is(err, strconv.ErrRange) {
			return mismatchf(n, v.kind.String(), "%q is not a number", s)
		}
		// too large for float32, widen
	}
	f, err := parseFloatText(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return mismatchf(n, v.kind.String(), "%q is not a float64", s)
	}
	return rb.enc.EncodeFloat64(f)
}

func (rb *rebuilder) hasOrig(n *Node) bool {
	return n.ByteStart >= 0 && n.ByteStart < n.ByteEnd && n.ByteEnd <= len(rb.data)
}

// copyOrig writes the node's original bytes verbatim.
func (rb *rebuilder) copyOrig(n *Node) error {
	if !rb.hasOrig(n) {
		return mismatchf(n, "", "original bytes %d..%d not available", n.ByteStart, n.ByteEnd)
	}
	_, err := rb.bb.Write(rb.data[n.ByteStart:n.ByteEnd])
	return err
}

// copyHeader writes a container's original type byte and count, which stay
// valid because the element count did not change.
func (rb *rebuilder) copyHeader(n *Node) error {
	end := n.ByteEnd
	if len(n.Children) > 0 {
		end = n.Children[0].ByteStart
	}
	if !rb.hasOrig(n) || end <= n.ByteStart {
		return mismatchf(n, "", "original header at %d not available", n.ByteStart)
	}
	_, err := rb.bb.Write(rb.data[n.ByteStart:end])
	return err
}
