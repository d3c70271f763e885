package mpedit

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

const indentStep = "  "

// PositionTable maps every compact-text offset, including the end offset,
// to the matching formatted-text offset. It never decreases.
type PositionTable []int

// ToFormatted translates a compact-text offset. Out-of-range offsets clamp.
func (pt PositionTable) ToFormatted(off int) int {
	if len(pt) == 0 {
		return 0
	}
	if off < 0 {
		off = 0
	} else if off >= len(pt) {
		off = len(pt) - 1
	}
	return pt[off]
}

// ToCompact translates a formatted-text offset to the first compact offset
// at or after it, so offsets inside indentation land on the next token.
func (pt PositionTable) ToCompact(off int) int {
	n := len(pt)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return pt[i] >= off })
	if i == n {
		return n - 1
	}
	return i
}

// Format pretty-prints compact text and builds the table mapping compact
// offsets onto the result. Tokens are copied as is, only whitespace between
// them changes.
func Format(compact string) (string, PositionTable, error) {
	var buf bytes.Buffer
	buf.Grow(len(compact) * 2)
	err := json.Indent(&buf, []byte(compact), "", indentStep)
	if err != nil {
		return "", nil, textSyntaxErr(err, "cannot format")
	}
	formatted := buf.String()
	return formatted, mapPositions(compact, formatted), nil
}

// Compact strips whitespace between tokens; it reverses Format.
func Compact(formatted string) (string, error) {
	var buf bytes.Buffer
	buf.Grow(len(formatted))
	err := json.Compact(&buf, []byte(formatted))
	if err != nil {
		return "", textSyntaxErr(err, "cannot compact")
	}
	return buf.String(), nil
}

// mapPositions walks both texts in lock-step. Outside of text literals it
// skips the whitespace the formatter inserted; inside literals both sides
// advance together. If the texts disagree on their tokens, the result is
// still monotonic, just less precise.
func mapPositions(compact, formatted string) PositionTable {
	pt := make(PositionTable, len(compact)+1)
	j := 0
	var inStr, escaped bool
	for i := 0; i < len(compact); i++ {
		c := compact[i]
		if !inStr {
			if isSpace(c) {
				pt[i] = j
				continue
			}
			for j < len(formatted) && isSpace(formatted[j]) {
				j++
			}
		}
		pt[i] = j

		switch {
		case escaped:
			escaped = false
		case inStr && c == '\\':
			escaped = true
		case c == '"':
			inStr = !inStr
		}
		if j < len(formatted) {
			j++
		}
	}
	pt[len(compact)] = len(formatted)
	return pt
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func textSyntaxErr(err error, msg string) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &TextSyntaxError{Offset: int(se.Offset), Msg: msg, Err: err}
	}
	return &TextSyntaxError{Msg: msg, Err: err}
}
