package mpedit

import (
	"encoding/binary"
	"io"
	"math"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

// bytesBuilder is the output sink for both the rebuilder and the msgpack
// encoder. It implements io.Writer and io.ByteWriter, so msgpack writes
// straight into Buf without an intermediate buffer.
type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)
var _ io.ByteWriter = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Len() int {
	return len(bb.Buf)
}

func (bb *bytesBuilder) Grow(n int) (off int) {
	off, bb.Buf = grow(bb.Buf, n)
	return
}

func (bb *bytesBuilder) Trim(off int) {
	bb.Buf = bb.Buf[:off]
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	off := bb.Grow(1)
	bb.Buf[off] = v
	return nil
}

func (bb *bytesBuilder) AppendByte(v byte) {
	off := bb.Grow(1)
	bb.Buf[off] = v
}

// byteDecoder is a forward-only cursor over a buffer. Every read either
// consumes exactly what it asks for or fails with ErrTruncated.
type byteDecoder struct {
	Orig []byte
	Buf  []byte
}

func makeByteDecoder(buf []byte) byteDecoder {
	return byteDecoder{buf, buf}
}

func (d *byteDecoder) Off() int {
	return len(d.Orig) - len(d.Buf)
}

func (d *byteDecoder) Remaining() int {
	return len(d.Buf)
}

func (d *byteDecoder) truncated(n int, what string) error {
	return decodeErrf(d.Orig, d.Off(), ErrTruncated, "%s: %d bytes remaining, %d wanted", what, len(d.Buf), n)
}

func (d *byteDecoder) Byte() (byte, error) {
	if len(d.Buf) < 1 {
		return 0, d.truncated(1, "type byte")
	}
	v := d.Buf[0]
	d.Buf = d.Buf[1:]
	return v, nil
}

func (d *byteDecoder) Uint8() (uint8, error) {
	if len(d.Buf) < 1 {
		return 0, d.truncated(1, "uint8")
	}
	v := d.Buf[0]
	d.Buf = d.Buf[1:]
	return v, nil
}

func (d *byteDecoder) Uint16() (uint16, error) {
	if len(d.Buf) < 2 {
		return 0, d.truncated(2, "uint16")
	}
	v := binary.BigEndian.Uint16(d.Buf)
	d.Buf = d.Buf[2:]
	return v, nil
}

func (d *byteDecoder) Uint32() (uint32, error) {
	if len(d.Buf) < 4 {
		return 0, d.truncated(4, "uint32")
	}
	v := binary.BigEndian.Uint32(d.Buf)
	d.Buf = d.Buf[4:]
	return v, nil
}

func (d *byteDecoder) Uint64() (uint64, error) {
	if len(d.Buf) < 8 {
		return 0, d.truncated(8, "uint64")
	}
	v := binary.BigEndian.Uint64(d.Buf)
	d.Buf = d.Buf[8:]
	return v, nil
}

// Len reads an 8, 16 or 32-bit big-endian length prefix.
func (d *byteDecoder) Len(width int) (int, error) {
	switch width {
	case 1:
		v, err := d.Uint8()
		return int(v), err
	case 2:
		v, err := d.Uint16()
		return int(v), err
	case 4:
		v, err := d.Uint32()
		if uint64(v) > math.MaxInt {
			return 0, decodeErrf(d.Orig, d.Off(), ErrTruncated, "length does not fit into int: %d", v)
		}
		return int(v), err
	default:
		panic("invalid length width")
	}
}

func (d *byteDecoder) Raw(n int) ([]byte, error) {
	if len(d.Buf) < n {
		return nil, d.truncated(n, "payload")
	}
	v := d.Buf[:n:n]
	d.Buf = d.Buf[n:]
	return v, nil
}
