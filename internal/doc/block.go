package doc

import (
	"fmt"
	"strconv"
	"strings"
)

// targetOptions controls how a leaf is turned into a block that block-level
// commands can restyle.
type targetOptions struct {
	// wrapItems wraps the inline content of list items and cells into a
	// paragraph instead of targeting the item or cell itself.
	wrapItems bool
}

// targetBlocks returns one block per leaf in [start, end], wrapping inline
// runs that have no block of their own into paragraphs.
func targetBlocks(root *Node, start, end int, opts targetOptions) []*Node {
	var out []*Node
	for _, lf := range NewLayout(root).LeavesIn(start, end) {
		if lf.Atom() {
			continue
		}
		switch {
		case lf.Anon:
			out = append(out, wrapRun(lf.Nodes))
		case opts.wrapItems && (lf.Block.Kind == KindCell || lf.Block.Kind == KindListItem):
			p := NewParagraph()
			for _, c := range append([]*Node(nil), lf.Block.Children...) {
				p.AppendChild(c)
			}
			lf.Block.AppendChild(p)
			out = append(out, p)
		default:
			out = append(out, lf.Block)
		}
	}
	if len(out) == 0 && len(root.Children) == 0 {
		p := NewParagraph()
		root.AppendChild(p)
		out = append(out, p)
	}
	return out
}

// wrapRun moves a run of sibling inline nodes into a new paragraph placed
// where the run was.
func wrapRun(nodes []*Node) *Node {
	p := NewParagraph()
	nodes[0].Parent.InsertBefore(p, nodes[0])
	for _, n := range nodes {
		p.AppendChild(n)
	}
	return p
}

// ParseBlockTag maps a formatBlock value such as "h2" or "<p>" to a kind and
// heading level.
func ParseBlockTag(tag string) (Kind, int, error) {
	tag = strings.ToLower(strings.Trim(strings.TrimSpace(tag), "<>"))
	switch tag {
	case "p":
		return KindParagraph, 0, nil
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return KindHeading, int(tag[1] - '0'), nil
	case "blockquote":
		return KindBlockquote, 0, nil
	case "pre":
		return KindPre, 0, nil
	}
	return 0, 0, fmt.Errorf("unsupported block format %q", tag)
}

// SetBlockFormat turns every block in [start, end] into kind (with level for
// headings).
func SetBlockFormat(root *Node, start, end int, kind Kind, level int) {
	for _, b := range targetBlocks(root, start, end, targetOptions{wrapItems: true}) {
		b.Kind = kind
		b.Level = 0
		b.Tag = ""
		if kind == KindHeading {
			b.Level = level
		}
	}
}

// SetAlign sets text-align on every block in [start, end].
func SetAlign(root *Node, start, end int, align string) {
	for _, b := range targetBlocks(root, start, end, targetOptions{}) {
		b.Style.Set("text-align", align)
	}
}

// IndentStep is the margin added or removed by one indent or outdent.
const IndentStep = 40

// Indent shifts every block in [start, end] by steps indent levels; negative
// steps outdent. Margins never go below zero.
func Indent(root *Node, start, end, steps int) {
	for _, b := range targetBlocks(root, start, end, targetOptions{}) {
		cur := 0
		if v := b.Style.Get("margin-left"); v != "" {
			cur, _ = strconv.Atoi(strings.TrimSuffix(v, "px"))
		}
		cur += steps * IndentStep
		if cur <= 0 {
			b.Style.Del("margin-left")
			continue
		}
		b.Style.Set("margin-left", strconv.Itoa(cur)+"px")
	}
}

func listItemOf(lf Leaf) *Node {
	if lf.Block.Kind == KindListItem {
		return lf.Block
	}
	for p := lf.Block.Parent; p != nil && p.Kind != KindCell; p = p.Parent {
		if p.Kind == KindListItem {
			return p
		}
	}
	return nil
}

// ToggleList wraps the blocks in [start, end] into a list of the requested
// type. When every block already sits in such a list the items are turned
// back into paragraphs; lists of the other type are converted in place.
func ToggleList(root *Node, start, end int, ordered bool) {
	leaves := NewLayout(root).LeavesIn(start, end)
	var items []*Node
	same := true
	found := false
	for _, lf := range leaves {
		if lf.Atom() {
			continue
		}
		found = true
		li := listItemOf(lf)
		if li == nil || li.Parent == nil || li.Parent.Kind != KindList || li.Parent.Ordered != ordered {
			same = false
		}
		if li != nil && (len(items) == 0 || items[len(items)-1] != li) {
			items = append(items, li)
		}
	}
	if found && same {
		for _, li := range items {
			unlistItem(li)
		}
		return
	}

	for _, li := range items {
		if li.Parent != nil && li.Parent.Kind == KindList {
			li.Parent.Ordered = ordered
		}
	}
	var targets []*Node
	for _, lf := range leaves {
		if lf.Atom() || listItemOf(lf) != nil {
			continue
		}
		switch {
		case lf.Anon:
			targets = append(targets, wrapRun(lf.Nodes))
		case lf.Block.Kind == KindCell:
			p := NewParagraph()
			for _, c := range append([]*Node(nil), lf.Block.Children...) {
				p.AppendChild(c)
			}
			lf.Block.AppendChild(p)
			targets = append(targets, p)
		default:
			targets = append(targets, lf.Block)
		}
	}
	if len(targets) == 0 && len(root.Children) == 0 {
		p := NewParagraph()
		root.AppendChild(p)
		targets = append(targets, p)
	}

	var list *Node
	for _, t := range targets {
		if list == nil || list.Parent != t.Parent || t.Index() != list.Index()+1 {
			list = NewList(ordered)
			t.Parent.InsertBefore(list, t)
		}
		li := NewListItem()
		if t.Kind == KindParagraph {
			li.Style = t.Style
			for _, c := range append([]*Node(nil), t.Children...) {
				li.AppendChild(c)
			}
			t.Remove()
		} else {
			li.AppendChild(t)
		}
		list.AppendChild(li)
	}
}

// unlistItem lifts li out of its list as paragraphs, splitting the list
// around it.
func unlistItem(li *Node) {
	list := li.Parent
	if list == nil || list.Kind != KindList || list.Parent == nil {
		return
	}
	own := Isolate(li, list)
	var blocks []*Node
	var run *Node
	for _, c := range append([]*Node(nil), li.Children...) {
		if c.IsBlock() {
			run = nil
			blocks = append(blocks, c)
			continue
		}
		if run == nil {
			run = NewParagraph()
			run.Style = li.Style
			blocks = append(blocks, run)
		}
		run.AppendChild(c)
	}
	if len(blocks) == 0 {
		p := NewParagraph()
		p.Style = li.Style
		blocks = append(blocks, p)
	}
	own.ReplaceWith(blocks...)
	dropEmptyLists(list)
}

func dropEmptyLists(list *Node) {
	parent := list.Parent
	if parent == nil {
		return
	}
	for _, c := range append([]*Node(nil), parent.Children...) {
		if c.Kind == KindList && len(c.Children) == 0 {
			c.Remove()
		}
	}
}
