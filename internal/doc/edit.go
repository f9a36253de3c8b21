package doc

import "unicode/utf8"

// SplitAt moves parent.Children[index:] and every following sibling on the
// way up to top into shallow clones, so that top is cut in two at the point.
// The clone of top is inserted right after top and returned.
func SplitAt(parent *Node, index int, top *Node) *Node {
	cur := parent
	moved := cur.ShallowClone()
	for _, c := range append([]*Node(nil), cur.Children[index:]...) {
		moved.AppendChild(c)
	}
	for cur != top {
		p := cur.Parent
		idx := cur.Index()
		clone := p.ShallowClone()
		clone.AppendChild(moved)
		for _, c := range append([]*Node(nil), p.Children[idx+1:]...) {
			clone.AppendChild(c)
		}
		moved = clone
		cur = p
	}
	top.Parent.InsertAfter(moved, top)
	return moved
}

// Isolate splits the ancestors of n up to top so that the returned copy of
// top contains n and nothing else. Empty leftovers are removed by Normalize.
func Isolate(n, top *Node) *Node {
	SplitAt(n.Parent, n.Index()+1, top)
	return SplitAt(n.Parent, n.Index(), top)
}

// Normalize merges adjacent text nodes and adjacent inline elements with
// identical formatting, and drops empty text and empty inline elements.
func Normalize(n *Node) {
	for _, c := range append([]*Node(nil), n.Children...) {
		Normalize(c)
	}
	out := n.Children[:0:0]
	for _, c := range n.Children {
		if c.Kind == KindText && c.Text == "" ||
			(c.Kind == KindInline || c.Kind == KindLink) && len(c.Children) == 0 {
			c.Parent = nil
			continue
		}
		if k := len(out); k > 0 {
			prev := out[k-1]
			if prev.Kind == KindText && c.Kind == KindText {
				prev.Text += c.Text
				c.Parent = nil
				continue
			}
			if sameFormat(prev, c) {
				for _, gc := range append([]*Node(nil), c.Children...) {
					prev.AppendChild(gc)
				}
				c.Parent = nil
				Normalize(prev)
				continue
			}
		}
		out = append(out, c)
	}
	n.Children = out
}

// InsertText inserts s at pos, extending the text run before the caret when
// there is one. It returns false when the tree has no leaf to type into.
func InsertText(root *Node, pos int, s string) bool {
	if s == "" {
		return true
	}
	pt, lf, ok := PointAt(root, pos)
	if !ok {
		p := NewParagraph(NewText(s))
		root.AppendChild(p)
		return true
	}
	if lf.Atom() {
		lf.Block.Parent.InsertAfter(NewParagraph(NewText(s)), lf.Block)
		return true
	}
	insertTextAt(pt, s)
	return true
}

func insertTextAt(pt Point, s string) {
	kids := pt.Parent.Children
	if pt.Index > 0 && kids[pt.Index-1].Kind == KindText {
		kids[pt.Index-1].Text += s
		return
	}
	if pt.Index < len(kids) && kids[pt.Index].Kind == KindText {
		kids[pt.Index].Text = s + kids[pt.Index].Text
		return
	}
	pt.Parent.InsertChild(pt.Index, NewText(s))
}

// InsertInline inserts inline nodes at pos.
func InsertInline(root *Node, pos int, nodes ...*Node) {
	pt, lf, ok := PointAt(root, pos)
	if !ok {
		root.AppendChild(NewParagraph(nodes...))
		return
	}
	if lf.Atom() {
		lf.Block.Parent.InsertAfter(NewParagraph(nodes...), lf.Block)
		return
	}
	for i, n := range nodes {
		pt.Parent.InsertChild(pt.Index+i, n)
	}
	Normalize(lf.Block)
}

// splittable reports whether a leaf block may be cut in two to receive
// block content.
func splittable(b *Node) bool {
	switch b.Kind {
	case KindParagraph, KindHeading, KindBlockquote, KindPre:
		return b.Parent != nil
	case KindElement:
		return b.Parent != nil && blockElementTags[b.Tag]
	}
	return false
}

// ancestorBelow returns the ancestor of n (or n) whose parent is host.
func ancestorBelow(n, host *Node) *Node {
	for c := n; c != nil; c = c.Parent {
		if c.Parent == host {
			return c
		}
	}
	return nil
}

// InsertFragment inserts the children of frag at pos. Inline-only fragments
// go in at the caret; block fragments cut the surrounding block in two.
func InsertFragment(root *Node, pos int, frag *Node) {
	nodes := append([]*Node(nil), frag.Children...)
	if len(nodes) == 0 {
		return
	}
	hasBlock := false
	for _, n := range nodes {
		if n.IsBlock() {
			hasBlock = true
			break
		}
	}
	if !hasBlock {
		InsertInline(root, pos, nodes...)
		return
	}

	pt, lf, ok := PointAt(root, pos)
	if !ok {
		for _, n := range nodes {
			root.AppendChild(n)
		}
		return
	}
	if lf.Atom() {
		at := lf.Block.Index() + 1
		for i, n := range nodes {
			lf.Block.Parent.InsertChild(at+i, n)
		}
		return
	}

	if lf.Anon || !splittable(lf.Block) {
		host := lf.Block
		at := pt.Index
		if pt.Parent != host {
			top := ancestorBelow(pt.Parent, host)
			SplitAt(pt.Parent, pt.Index, top)
			at = top.Index() + 1
		}
		for i, n := range nodes {
			host.InsertChild(at+i, n)
		}
		Normalize(host)
		return
	}

	b := lf.Block
	tail := SplitAt(pt.Parent, pt.Index, b)
	i := 0
	for i < len(nodes) && !nodes[i].IsBlock() {
		i++
	}
	j := len(nodes)
	for j > i && !nodes[j-1].IsBlock() {
		j--
	}
	for _, n := range nodes[:i] {
		b.AppendChild(n)
	}
	for k, n := range nodes[j:] {
		tail.InsertChild(k, n)
	}
	// Blocks, and inline runs between them wrapped as paragraphs, go
	// between the two halves.
	at := b.Index() + 1
	var run *Node
	for _, n := range nodes[i:j] {
		if n.IsBlock() {
			run = nil
			b.Parent.InsertChild(at, n)
			at++
			continue
		}
		if run == nil {
			run = NewParagraph()
			b.Parent.InsertChild(at, run)
			at++
		}
		run.AppendChild(n)
	}
	Normalize(b)
	Normalize(tail)
	if b.Empty() {
		b.Remove()
	}
	if tail.Empty() {
		tail.Remove()
	}
}

// SplitBlock breaks the block at pos like the Enter key: a new block of the
// same kind in general, a paragraph after a heading when the caret is at its
// end, a newline inside pre and a line break inside a table cell.
func SplitBlock(root *Node, pos int) {
	pt, lf, ok := PointAt(root, pos)
	if !ok {
		root.AppendChild(NewParagraph())
		root.AppendChild(NewParagraph())
		return
	}
	if lf.Atom() {
		lf.Block.Parent.InsertAfter(NewParagraph(), lf.Block)
		return
	}
	if lf.Block.Kind == KindPre || lf.Block.Ancestor(KindPre) != nil {
		insertTextAt(pt, "\n")
		return
	}
	if lf.Block.Kind == KindCell || lf.Anon && lf.Cell() != nil {
		pt.Parent.InsertChild(pt.Index, NewBreak())
		return
	}
	b := lf.Block
	if lf.Anon {
		// Wrap the inline run into its own paragraph before splitting it.
		p := NewParagraph()
		lf.Nodes[0].Parent.InsertBefore(p, lf.Nodes[0])
		for _, n := range lf.Nodes {
			p.AppendChild(n)
		}
		b = p
		pt, _, _ = PointAt(root, pos)
	} else if b.Kind == KindDocument || b.IsContainer() {
		return
	}
	tail := SplitAt(pt.Parent, pt.Index, b)
	Normalize(b)
	Normalize(tail)
	if b.Kind == KindHeading && tail.Empty() {
		p := NewParagraph()
		tail.ReplaceWith(p)
	}
}

// DeleteRange removes the content of [start, end). When the range crosses
// block boundaries the blocks on either side are joined, except across table
// cells, whose structure is left intact.
func DeleteRange(root *Node, start, end int) {
	if end <= start {
		return
	}
	SplitTextAt(root, end)
	SplitTextAt(root, start)
	l := NewLayout(root)

	var leaves []Leaf
	for _, lf := range l.Leaves {
		if lf.End >= start && lf.Start < end || lf.Start > start && lf.Start <= end {
			leaves = append(leaves, lf)
		}
	}
	anchor := -1
	if len(leaves) > 0 && leaves[0].Anon {
		anchor = leaves[0].Nodes[0].Index()
	}

	for _, s := range l.Spans {
		if s.Start >= start && s.End <= end && s.Start < end {
			s.Node.Remove()
		}
	}

	var text []Leaf
	for _, lf := range leaves {
		if lf.Atom() {
			lf.Block.Remove()
			continue
		}
		text = append(text, lf)
	}
	if len(text) < 2 {
		Normalize(root)
		return
	}
	first, last := text[0], text[len(text)-1]
	for _, lf := range text[1 : len(text)-1] {
		if lf.Cell() != nil && lf.Cell() != first.Cell() {
			continue
		}
		removeLeaf(lf)
	}
	if first.Cell() == last.Cell() {
		joinLeaves(first, last, anchor)
	}
	Normalize(root)
}

// joinLeaves moves what remains of last to the end of first.
func joinLeaves(first, last Leaf, anchor int) {
	var rest []*Node
	if last.Anon {
		for _, n := range last.Nodes {
			if n.Parent != nil {
				rest = append(rest, n)
			}
		}
	} else {
		rest = append(rest, last.Block.Children...)
	}
	if first.Anon {
		at := anchor
		for _, n := range first.Nodes {
			if n.Parent != nil {
				at++
			}
		}
		for i, n := range rest {
			first.Block.InsertChild(at+i, n)
		}
	} else {
		for _, n := range rest {
			first.Block.AppendChild(n)
		}
	}
	if !last.Anon {
		prune(last.Block)
	}
}

func removeLeaf(lf Leaf) {
	if lf.Anon {
		for _, n := range lf.Nodes {
			n.Remove()
		}
		return
	}
	for _, c := range append([]*Node(nil), lf.Block.Children...) {
		c.Remove()
	}
	prune(lf.Block)
}

// prune removes an emptied block and any ancestors it leaves without
// children, stopping at the document and at table cells.
func prune(n *Node) {
	if n.Parent == nil || n.Kind == KindCell || n.Kind == KindDocument || contentLen(n) > 0 {
		return
	}
	for n.Parent != nil && n.Kind != KindCell && n.Kind != KindDocument {
		p := n.Parent
		n.Remove()
		if len(p.Children) > 0 {
			return
		}
		n = p
	}
}

func contentLen(n *Node) int {
	total := 0
	n.Walk(func(c *Node) bool {
		switch c.Kind {
		case KindText:
			total += utf8.RuneCountInString(c.Text)
		case KindBreak, KindImage, KindRule, KindEmbed, KindTable:
			total++
		}
		return true
	})
	return total
}
