package doc

import (
	"strings"
	"unicode/utf8"
)

// Leaf is a run of inline content that holds the caret: either a whole
// block with inline-only children, or a maximal run of inline nodes inside a
// block that also contains blocks (Anon).
type Leaf struct {
	Block *Node
	Nodes []*Node
	Anon  bool
	Start int
	End   int
}

// Atom reports whether the leaf is a block-level atom such as a rule or an
// embed. Atom leaves have zero length.
func (l Leaf) Atom() bool {
	return !l.Anon && l.Block.IsAtom()
}

// Cell returns the table cell the leaf sits in, or nil.
func (l Leaf) Cell() *Node {
	if l.Block.Kind == KindCell {
		return l.Block
	}
	return l.Block.Ancestor(KindCell)
}

// Span positions an inline leaf node (text, break, image) in the plain-text
// projection.
type Span struct {
	Node  *Node
	Start int
	End   int
}

// Layout is the plain-text projection of a tree. Positions are rune offsets
// into Text.
type Layout struct {
	Root   *Node
	Leaves []Leaf
	Spans  []Span
	Text   string
}

// Len returns the number of positions minus one (the offset of the end).
func (l *Layout) Len() int { return utf8.RuneCountInString(l.Text) }

// NewLayout projects root.
func NewLayout(root *Node) *Layout {
	b := &layoutBuilder{l: &Layout{Root: root}}
	b.block(root)
	b.l.Text = b.text.String()
	return b.l
}

type layoutBuilder struct {
	l    *Layout
	text strings.Builder
	pos  int
}

func (b *layoutBuilder) hasBlockChild(n *Node) bool {
	for _, c := range n.Children {
		if c.IsBlock() {
			return true
		}
	}
	return false
}

func (b *layoutBuilder) block(n *Node) {
	if n.IsAtom() || (!n.IsContainer() && !b.hasBlockChild(n)) {
		b.leaf(Leaf{Block: n, Nodes: append([]*Node(nil), n.Children...)})
		return
	}
	var run []*Node
	flush := func() {
		if len(run) > 0 {
			b.leaf(Leaf{Block: n, Nodes: run, Anon: true})
			run = nil
		}
	}
	for _, c := range n.Children {
		if c.IsBlock() {
			flush()
			b.block(c)
			continue
		}
		run = append(run, c)
	}
	flush()
}

func (b *layoutBuilder) leaf(lf Leaf) {
	if k := len(b.l.Leaves); k > 0 {
		sep := "\n"
		prev := b.l.Leaves[k-1]
		if pc, c := prev.Cell(), lf.Cell(); pc != nil && c != nil && pc != c && pc.Parent == c.Parent {
			sep = "\t"
		}
		b.text.WriteString(sep)
		b.pos++
	}
	lf.Start = b.pos
	if !lf.Block.IsAtom() {
		for _, n := range lf.Nodes {
			b.inline(n)
		}
	}
	lf.End = b.pos
	b.l.Leaves = append(b.l.Leaves, lf)
}

func (b *layoutBuilder) inline(n *Node) {
	switch n.Kind {
	case KindText:
		l := utf8.RuneCountInString(n.Text)
		b.l.Spans = append(b.l.Spans, Span{Node: n, Start: b.pos, End: b.pos + l})
		b.text.WriteString(n.Text)
		b.pos += l
	case KindBreak:
		b.l.Spans = append(b.l.Spans, Span{Node: n, Start: b.pos, End: b.pos + 1})
		b.text.WriteString("\n")
		b.pos++
	case KindImage:
		b.l.Spans = append(b.l.Spans, Span{Node: n, Start: b.pos, End: b.pos})
	default:
		for _, c := range n.Children {
			b.inline(c)
		}
	}
}

// Locate returns the index of the leaf holding pos, clamping pos into range.
// It returns -1 only when the tree has no leaves.
func (l *Layout) Locate(pos int) int {
	if len(l.Leaves) == 0 {
		return -1
	}
	for i, lf := range l.Leaves {
		if pos <= lf.End {
			return i
		}
	}
	return len(l.Leaves) - 1
}

// LeavesIn returns the leaves that intersect [start, end]. A collapsed range
// yields the single leaf holding the caret.
func (l *Layout) LeavesIn(start, end int) []Leaf {
	if len(l.Leaves) == 0 {
		return nil
	}
	if end <= start {
		return []Leaf{l.Leaves[l.Locate(start)]}
	}
	var out []Leaf
	for _, lf := range l.Leaves {
		if lf.End >= start && lf.Start < end {
			out = append(out, lf)
		}
	}
	return out
}

// PlainText returns the plain-text projection of root.
func PlainText(root *Node) string {
	return NewLayout(root).Text
}

// WordCount counts whitespace-separated words in the projection of root.
func WordCount(root *Node) int {
	return len(strings.Fields(PlainText(root)))
}

// SplitTextAt makes sure a text node boundary exists at pos.
func SplitTextAt(root *Node, pos int) {
	for _, s := range NewLayout(root).Spans {
		if s.Node.Kind != KindText || pos <= s.Start || pos >= s.End {
			continue
		}
		r := []rune(s.Node.Text)
		k := pos - s.Start
		tail := NewText(string(r[k:]))
		s.Node.Text = string(r[:k])
		s.Node.Parent.InsertAfter(tail, s.Node)
		return
	}
}

// TextNodesIn splits text at both edges of [start, end) and returns the
// non-empty text nodes fully inside the range, in document order.
func TextNodesIn(root *Node, start, end int) []*Node {
	if end <= start {
		return nil
	}
	SplitTextAt(root, end)
	SplitTextAt(root, start)
	var out []*Node
	for _, s := range NewLayout(root).Spans {
		if s.Node.Kind == KindText && s.Start >= start && s.End <= end && s.End > s.Start {
			out = append(out, s.Node)
		}
	}
	return out
}

// Point is a DOM boundary point: a position between the children of Parent.
type Point struct {
	Parent *Node
	Index  int
}

// PointAt resolves pos to a boundary point, splitting a text node if pos
// falls inside one. Ties go left: the end of a run beats the start of the
// next, so typing continues the formatting before the caret. It returns ok
// false when the tree has no leaves.
func PointAt(root *Node, pos int) (Point, Leaf, bool) {
	SplitTextAt(root, pos)
	l := NewLayout(root)
	i := l.Locate(pos)
	if i < 0 {
		return Point{}, Leaf{}, false
	}
	lf := l.Leaves[i]
	if lf.Atom() {
		return Point{Parent: lf.Block.Parent, Index: lf.Block.Index() + 1}, lf, true
	}
	o := pos - lf.Start
	if o < 0 {
		o = 0
	}
	if p, ok := pointIn(lf.Block, lf.Nodes, &o); ok {
		return p, lf, true
	}
	if len(lf.Nodes) == 0 {
		return Point{Parent: lf.Block, Index: 0}, lf, true
	}
	last := lf.Nodes[len(lf.Nodes)-1]
	return Point{Parent: lf.Block, Index: last.Index() + 1}, lf, true
}

func pointIn(parent *Node, nodes []*Node, o *int) (Point, bool) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			l := utf8.RuneCountInString(n.Text)
			if *o == 0 {
				return Point{Parent: parent, Index: n.Index()}, true
			}
			if *o <= l {
				return Point{Parent: parent, Index: n.Index() + 1}, true
			}
			*o -= l
		case KindBreak:
			if *o == 0 {
				return Point{Parent: parent, Index: n.Index()}, true
			}
			*o--
		case KindImage:
			if *o == 0 {
				return Point{Parent: parent, Index: n.Index()}, true
			}
		default:
			if len(n.Children) == 0 {
				continue
			}
			if *o == 0 && startsWithAtom(n) {
				return Point{Parent: parent, Index: n.Index()}, true
			}
			if p, ok := pointIn(n, n.Children, o); ok {
				return p, true
			}
		}
	}
	return Point{}, false
}

func startsWithAtom(n *Node) bool {
	for len(n.Children) > 0 {
		n = n.Children[0]
	}
	return n.Kind == KindBreak || n.Kind == KindImage
}
