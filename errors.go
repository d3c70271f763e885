package mpedit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTruncated    = errors.New("truncated input")
	ErrUnknownCode  = errors.New("unrecognized type byte")
	ErrTrailingData = errors.New("trailing data after value")
	ErrTooDeep      = errors.New("nesting too deep")
)

// DecodeError reports a buffer that cannot be decoded. Err is one of the
// Err* reasons above, so errors.Is(err, ErrTruncated) works.
type DecodeError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func decodeErrf(data []byte, off int, reason error, format string, args ...any) error {
	return &DecodeError{data, off, reason, fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	var buf strings.Builder
	fmt.Fprintf(&buf, "at offset %d: ", e.Off)
	if e.Msg != "" {
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(e.Err.Error())
	}
	if n <= prefixLen+suffixLen {
		fmt.Fprintf(&buf, ": (%d) %x", n, e.Data)
	} else {
		fmt.Fprintf(&buf, ": (%d) %x...%x", n, e.Data[:prefixLen], e.Data[n-suffixLen:])
	}
	return buf.String()
}

// TextSyntaxError reports malformed compact, formatted or edited text.
type TextSyntaxError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *TextSyntaxError) Unwrap() error {
	return e.Err
}

func (e *TextSyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text syntax error at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("text syntax error at offset %d: %s", e.Offset, e.Msg)
}

// StructureMismatchError reports that an edited value no longer lines up
// with the node it replaces, so its original encoding cannot be reused.
type StructureMismatchError struct {
	Path     string
	Expected Kind
	Found    string
	Msg      string
}

func mismatchf(orig *Node, found string, format string, args ...any) error {
	return &StructureMismatchError{
		Path:     orig.Path,
		Expected: orig.Kind,
		Found:    found,
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (e *StructureMismatchError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Path)
	buf.WriteString(": expected ")
	buf.WriteString(e.Expected.String())
	if e.Found != "" {
		buf.WriteString(", found ")
		buf.WriteString(e.Found)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	return buf.String()
}
