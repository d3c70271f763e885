package mpedit

import (
	"fmt"
	"io"
	"strings"
)

type DumpFlags uint64

const (
	DumpRanges = DumpFlags(1 << iota)
	DumpValues
	DumpPaths

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes one line per node, indented by depth.
func Dump(w io.Writer, root *Node, f DumpFlags) error {
	_, err := io.WriteString(w, DumpString(root, f))
	return err
}

// DumpString is Dump into a string.
func DumpString(root *Node, f DumpFlags) string {
	var buf strings.Builder
	dumpNode(&buf, root, "", f)
	return buf.String()
}

func dumpNode(w *strings.Builder, n *Node, prefix string, f DumpFlags) {
	w.WriteString(prefix)
	w.WriteString(n.Kind.String())
	if n.Format != FormatNone {
		w.WriteByte('/')
		w.WriteString(n.Format.String())
	}
	if f.Contains(DumpRanges) {
		fmt.Fprintf(w, " bytes=%d..%d text=%d..%d", n.ByteStart, n.ByteEnd, n.TextStart, n.TextEnd)
	}
	if f.Contains(DumpPaths) {
		w.WriteByte(' ')
		w.WriteString(n.Path)
	}
	if f.Contains(DumpValues) {
		switch n.Kind {
		case KindArray:
			fmt.Fprintf(w, " (%d items)", n.Len())
		case KindMap:
			fmt.Fprintf(w, " (%d pairs)", n.Len())
		default:
			w.WriteString(" = ")
			w.Write(appendScalar(nil, n))
		}
	}
	w.WriteByte('\n')

	prefix = prefix + indentStep
	for _, c := range n.Children {
		dumpNode(w, c, prefix, f)
	}
}
