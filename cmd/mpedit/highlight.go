package main

import (
	"encoding/hex"
	"strings"

	"github.com/fatih/color"
)

var selected = color.New(color.FgBlack, color.BgYellow)

// highlight returns s with s[start:end] painted.
func highlight(s string, start, end int) string {
	start = clamp(start, 0, len(s))
	end = clamp(end, start, len(s))
	var buf strings.Builder
	buf.WriteString(s[:start])
	buf.WriteString(selected.Sprint(s[start:end]))
	buf.WriteString(s[end:])
	return buf.String()
}

// hexDump renders data as rows of 16 space-separated bytes, painting the
// bytes in start..end.
func hexDump(data []byte, start, end int) string {
	const perRow = 16
	var buf strings.Builder
	for row := 0; row < len(data); row += perRow {
		rowEnd := min(row+perRow, len(data))
		buf.WriteString(hex.EncodeToString([]byte{byte(row >> 24), byte(row >> 16), byte(row >> 8), byte(row)}))
		buf.WriteString(": ")
		for i := row; i < rowEnd; i++ {
			if i > row {
				buf.WriteByte(' ')
			}
			b := hex.EncodeToString(data[i : i+1])
			if i >= start && i < end {
				buf.WriteString(selected.Sprint(b))
			} else {
				buf.WriteString(b)
			}
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
