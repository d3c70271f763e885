package mpedit

import (
	"errors"
	"reflect"
	"testing"
)

func TestBytesBuilder_Basics(t *testing.T) {
	var bb bytesBuilder
	off := bb.Grow(3)
	copy(bb.Buf[off:], []byte{1, 2, 3})
	bb.AppendByte(4)
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 3, 4}) {
		t.Fatalf("bb.Buf = %x, wanted 01020304", bb.Buf)
	}
	if bb.Len() != 4 {
		t.Fatalf("Len = %d, wanted 4", bb.Len())
	}

	bb.Trim(2)
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2}) {
		t.Fatalf("after Trim: bb.Buf = %x, wanted 0102", bb.Buf)
	}

	_, _ = bb.Write([]byte{9, 8})
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 9, 8}) {
		t.Fatalf("after Write: bb.Buf = %x, wanted 01020908", bb.Buf)
	}

	_ = bb.WriteByte(7)
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 9, 8, 7}) {
		t.Fatalf("after WriteByte: bb.Buf = %x, wanted 0102090807", bb.Buf)
	}
}

func TestByteUtil_Grow(t *testing.T) {
	buf := ensureCapacity(nil, 5)
	if cap(buf) != 16 || len(buf) != 0 {
		t.Fatalf("ensureCapacity(nil, 5) = len %d cap %d, wanted len 0 cap 16", len(buf), cap(buf))
	}
	buf = ensureCapacity([]byte{1, 2}, 40)
	if cap(buf) != 64 || !reflect.DeepEqual(buf, []byte{1, 2}) {
		t.Fatalf("ensureCapacity = %x cap %d, wanted 0102 cap 64", buf, cap(buf))
	}

	src := []byte{0xAA, 0xBB, 0xCC}
	buf = appendRaw(nil, src)
	if !reflect.DeepEqual(buf, src) {
		t.Fatalf("appendRaw = %x, wanted %x", buf, src)
	}
	off, buf := grow(buf, 2)
	if off != 3 || len(buf) != 5 {
		t.Fatalf("grow = (%d, len %d), wanted (3, len 5)", off, len(buf))
	}
}

func TestByteDecoder_Reads(t *testing.T) {
	d := makeByteDecoder(hx("01 0203 04050607 08090a0b0c0d0e0f 10 1112 cafe"))
	b := must(d.Byte())
	u16 := must(d.Uint16())
	u32 := must(d.Uint32())
	u64 := must(d.Uint64())
	l1 := must(d.Len(1))
	l2 := must(d.Len(2))
	if b != 1 || u16 != 0x0203 || u32 != 0x04050607 || u64 != 0x08090a0b0c0d0e0f || l1 != 0x10 || l2 != 0x1112 {
		t.Fatalf("reads = %x %x %x %x %x %x", b, u16, u32, u64, l1, l2)
	}
	if d.Off() != 18 || d.Remaining() != 2 {
		t.Fatalf("Off/Remaining = %d/%d, wanted 18/2", d.Off(), d.Remaining())
	}
	raw := must(d.Raw(2))
	if !reflect.DeepEqual(raw, []byte{0xca, 0xfe}) || cap(raw) != 2 {
		t.Fatalf("Raw = %x cap %d, wanted cafe cap 2", raw, cap(raw))
	}
}

func TestByteDecoder_Errors(t *testing.T) {
	t.Run("Uint32 short", func(t *testing.T) {
		d := makeByteDecoder([]byte{0xAA, 1, 2})
		_ = must(d.Byte())
		_, err := d.Uint32()
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("Uint32 err = %T %v, wanted *DecodeError", err, err)
		}
		if de.Off != 1 || !errors.Is(err, ErrTruncated) {
			t.Fatalf("DecodeError = %v, wanted truncation at 1", err)
		}
	})

	t.Run("Raw not enough data", func(t *testing.T) {
		d := makeByteDecoder([]byte{1, 2})
		_, err := d.Raw(3)
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("Raw err = %v, wanted ErrTruncated", err)
		}
		if d.Remaining() != 2 {
			t.Fatalf("Remaining after failed Raw = %d, wanted 2", d.Remaining())
		}
	})

	t.Run("invalid width", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic")
			}
		}()
		d := makeByteDecoder([]byte{1, 2, 3})
		_, _ = d.Len(3)
	})
}
