package mpedit

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// withEncoder runs fn with a pooled msgpack encoder writing into bb.
func withEncoder(bb *bytesBuilder, fn func(enc *msgpack.Encoder) error) error {
	enc := msgpack.GetEncoder()
	enc.ResetDict(bb, nil)
	err := fn(enc)
	msgpack.PutEncoder(enc)
	return err
}

// EncodeText encodes edited text from scratch, with no original tree to
// borrow formats from: integers get the smallest encoding, other numbers
// become float64, text literals become strings.
func EncodeText(text string) ([]byte, error) {
	v, err := parseText(text)
	if err != nil {
		return nil, err
	}
	return encodeGeneric(v)
}

func encodeGeneric(v *textValue) ([]byte, error) {
	var bb bytesBuilder
	err := withEncoder(&bb, func(enc *msgpack.Encoder) error {
		return encodeGenericValue(enc, v)
	})
	if err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

func encodeGenericValue(enc *msgpack.Encoder, v *textValue) error {
	switch v.kind {
	case textNull:
		return enc.EncodeNil()
	case textBool:
		return enc.EncodeBool(v.bool)
	case textNumber:
		return encodeNumber(enc, v.num)
	case textString:
		return enc.EncodeString(v.str)
	case textArray:
		err := enc.EncodeArrayLen(len(v.items))
		if err != nil {
			return err
		}
		for _, item := range v.items {
			err = encodeGenericValue(enc, item)
			if err != nil {
				return err
			}
		}
		return nil
	case textObject:
		err := enc.EncodeMapLen(len(v.items))
		if err != nil {
			return err
		}
		for i, item := range v.items {
			err = enc.EncodeString(v.keys[i])
			if err != nil {
				return err
			}
			err = encodeGenericValue(enc, item)
			if err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Errorf("unsupported text kind %v", v.kind))
	}
}

func encodeNumber(enc *msgpack.Encoder, s string) error {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return enc.EncodeInt(i)
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return enc.EncodeUint(u)
	}
	// out of range numbers come back as ±Inf, which is what they mean
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	return enc.EncodeFloat64(f)
}

// encodeIntAs writes an integer using the given fixed format. It reports
// false if the value does not fit, leaving nothing written.
func encodeIntAs(enc *msgpack.Encoder, bb *bytesBuilder, format WireFormat, iv intValue) (bool, error) {
	switch format {
	case FormatPosFixint:
		if !iv.fitsUnsigned(0x7f) {
			return false, nil
		}
		return true, bb.WriteByte(byte(iv.u))
	case FormatNegFixint:
		if !iv.fitsSigned(-32, -1) {
			return false, nil
		}
		return true, bb.WriteByte(byte(int8(iv.i)))
	case FormatUint8:
		if !iv.fitsUnsigned(0xff) {
			return false, nil
		}
		return true, enc.EncodeUint8(uint8(iv.u))
	case FormatUint16:
		if !iv.fitsUnsigned(0xffff) {
			return false, nil
		}
		return true, enc.EncodeUint16(uint16(iv.u))
	case FormatUint32:
		if !iv.fitsUnsigned(0xffffffff) {
			return false, nil
		}
		return true, enc.EncodeUint32(uint32(iv.u))
	case FormatUint64:
		if !iv.fitsUnsigned(^uint64(0)) {
			return false, nil
		}
		return true, enc.EncodeUint64(iv.u)
	case FormatInt8:
		if !iv.fitsSigned(-1<<7, 1<<7-1) {
			return false, nil
		}
		return true, enc.EncodeInt8(int8(iv.i))
	case FormatInt16:
		if !iv.fitsSigned(-1<<15, 1<<15-1) {
			return false, nil
		}
		return true, enc.EncodeInt16(int16(iv.i))
	case FormatInt32:
		if !iv.fitsSigned(-1<<31, 1<<31-1) {
			return false, nil
		}
		return true, enc.EncodeInt32(int32(iv.i))
	case FormatInt64:
		if !iv.fitsSigned(-1<<63, 1<<63-1) {
			return false, nil
		}
		return true, enc.EncodeInt64(iv.i)
	default:
		return false, nil
	}
}

// encodeIntMinimal writes an integer in its smallest encoding.
func encodeIntMinimal(enc *msgpack.Encoder, iv intValue) error {
	if iv.neg {
		return enc.EncodeInt(iv.i)
	}
	return enc.EncodeUint(iv.u)
}

// intValue holds an integer parsed from text that may need the full signed
// or unsigned 64-bit range. When neg is false, u is authoritative and i is
// only valid if u fits int64.
type intValue struct {
	neg bool
	i   int64
	u   uint64
}

func parseIntText(s string) (intValue, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i < 0 {
			return intValue{neg: true, i: i}, true
		}
		return intValue{i: i, u: uint64(i)}, true
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return intValue{u: u, i: -1}, true
	}
	return intValue{}, false
}

func (iv intValue) fitsUnsigned(max uint64) bool {
	return !iv.neg && iv.u <= max
}

// fitsSigned treats non-negative values above MaxInt64 as not fitting.
func (iv intValue) fitsSigned(min, max int64) bool {
	if !iv.neg && iv.u > 1<<63-1 {
		return false
	}
	return iv.i >= min && iv.i <= max
}
