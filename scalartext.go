package mpedit

import (
	"encoding/base64"
	"math"
	"strconv"
	"unicode/utf8"
)

// These are the only spellings the text side has for non-finite floats.
const (
	textNaN    = "NaN"
	textPosInf = "Infinity"
	textNegInf = "-Infinity"
)

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a double-quoted text literal. Invalid UTF-8 is
// replaced with U+FFFD, so the output is always valid text.
func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			buf = append(buf, s[start:i]...)
			switch c {
			case '"', '\\':
				buf = append(buf, '\\', c)
			case '\n':
				buf = append(buf, '\\', 'n')
			case '\r':
				buf = append(buf, '\\', 'r')
			case '\t':
				buf = append(buf, '\\', 't')
			case '\b':
				buf = append(buf, '\\', 'b')
			case '\f':
				buf = append(buf, '\\', 'f')
			default:
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, s[start:i]...)
			buf = append(buf, "\ufffd"...)
			i += size
			start = i
			continue
		}
		if r == '\u2028' || r == '\u2029' {
			buf = append(buf, s[start:i]...)
			buf = append(buf, '\\', 'u', '2', '0', '2', hexDigits[r&0xF])
			i += size
			start = i
			continue
		}
		i += size
	}
	buf = append(buf, s[start:]...)
	return append(buf, '"')
}

// displayString is what a decoded string looks like once it went through
// the text: invalid UTF-8 sequences become U+FFFD.
func displayString(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var buf []byte
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		buf = utf8.AppendRune(buf, r)
		i += size
	}
	return string(buf)
}

// appendFloat writes a float in a form that parses back to the same value at
// the given bit size, and always reads as a float (has '.' or an exponent).
// Non-finite values come out as quoted tokens.
func appendFloat(buf []byte, f float64, bits int) []byte {
	switch {
	case math.IsNaN(f):
		return append(buf, `"`+textNaN+`"`...)
	case math.IsInf(f, 1):
		return append(buf, `"`+textPosInf+`"`...)
	case math.IsInf(f, -1):
		return append(buf, `"`+textNegInf+`"`...)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(buf)
		if n-start >= 4 && buf[n-4] == 'e' && buf[n-3] == '-' && buf[n-2] == '0' {
			buf[n-2] = buf[n-1]
			buf = buf[:n-1]
		}
		return buf
	}
	for _, c := range buf[start:] {
		if c == '.' {
			return buf
		}
	}
	return append(buf, '.', '0')
}

func parseFloatText(s string, bits int) (float64, error) {
	switch s {
	case textNaN:
		return math.NaN(), nil
	case textPosInf:
		return math.Inf(1), nil
	case textNegInf:
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, bits)
}

func appendBinary(buf []byte, b []byte) []byte {
	buf = append(buf, '"')
	off, buf := grow(buf, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(buf[off:], b)
	return append(buf, '"')
}

func appendExt(buf []byte, typ int8, payload []byte) []byte {
	buf = append(buf, `"ext(`...)
	buf = strconv.AppendInt(buf, int64(typ), 10)
	buf = append(buf, ',')
	off, buf := grow(buf, base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(buf[off:], payload)
	return append(buf, `)"`...)
}

// appendScalar renders a non-container node as a single text token.
func appendScalar(buf []byte, n *Node) []byte {
	switch n.Kind {
	case KindNil:
		return append(buf, "null"...)
	case KindBool:
		return strconv.AppendBool(buf, n.Bool)
	case KindInt:
		if n.Format.Unsigned() {
			return strconv.AppendUint(buf, n.Uint, 10)
		}
		return strconv.AppendInt(buf, n.Int, 10)
	case KindFloat:
		if n.Format == FormatFloat32 {
			return appendFloat(buf, n.Float, 32)
		}
		return appendFloat(buf, n.Float, 64)
	case KindString:
		return appendQuoted(buf, n.Str)
	case KindBinary:
		return appendBinary(buf, n.Bytes)
	case KindExt:
		return appendExt(buf, n.ExtType, n.Bytes)
	default:
		panic("appendScalar: container node " + n.Kind.String())
	}
}

// appendKey renders a map key. Keys must come out as text literals, so
// anything that does not already render quoted gets wrapped.
func appendKey(buf []byte, n *Node) []byte {
	start := len(buf)
	buf = appendScalar(buf, n)
	if buf[start] == '"' {
		return buf
	}
	tok := string(buf[start:])
	return appendQuoted(buf[:start], tok)
}

// appendCompact renders a subtree exactly as Decode renders it into the
// compact text.
func appendCompact(buf []byte, n *Node) []byte {
	switch n.Kind {
	case KindArray:
		buf = append(buf, '[')
		for i, c := range n.Children {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCompact(buf, c)
		}
		return append(buf, ']')
	case KindMap:
		buf = append(buf, '{')
		for i := 0; i < n.Len(); i++ {
			if i > 0 {
				buf = append(buf, ',')
			}
			k, v := n.Pair(i)
			if k.Kind.IsContainer() {
				buf = appendQuoted(buf, string(appendCompact(nil, k)))
			} else {
				buf = appendKey(buf, k)
			}
			buf = append(buf, ':')
			buf = appendCompact(buf, v)
		}
		return append(buf, '}')
	default:
		return appendScalar(buf, n)
	}
}
