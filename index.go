package mpedit

// Index answers "which node is under this offset" for byte offsets and
// compact-text offsets.
type Index struct {
	nodes []*Node
}

func NewIndex(nodes []*Node) *Index {
	return &Index{nodes: nodes}
}

func (ix *Index) Nodes() []*Node {
	return ix.nodes
}

// NodeAtByte returns the smallest node whose byte range contains off, or nil.
func (ix *Index) NodeAtByte(off int) *Node {
	return ix.smallest(off, (*Node).ContainsByte, (*Node).ByteLen)
}

// NodeAtText returns the smallest node whose compact-text range contains
// off, or nil.
func (ix *Index) NodeAtText(off int) *Node {
	return ix.smallest(off, (*Node).ContainsText, (*Node).TextLen)
}

// NodeAtFormatted looks up a formatted-text offset by translating it through
// pt first.
func (ix *Index) NodeAtFormatted(pt PositionTable, off int) *Node {
	return ix.NodeAtText(pt.ToCompact(off))
}

// smallest scans in decode order; on equal sizes the first hit wins, which
// is the outermost of the nodes sharing a range.
func (ix *Index) smallest(off int, contains func(*Node, int) bool, size func(*Node) int) *Node {
	var best *Node
	bestSize := 0
	for _, n := range ix.nodes {
		if !contains(n, off) {
			continue
		}
		if s := size(n); best == nil || s < bestSize {
			best, bestSize = n, s
		}
	}
	return best
}
