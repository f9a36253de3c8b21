// Package doc is the editor's document model: an explicit node tree with an
// HTML codec, a plain-text projection used for positions, a paste sanitiser
// and table grid operations.
package doc

import "strings"

// Kind tags the variant of a Node.
type Kind int

const (
	KindDocument Kind = iota
	KindParagraph
	KindHeading
	KindBlockquote
	KindPre
	KindList
	KindListItem
	KindTable
	KindRow
	KindCell
	KindImage
	KindEmbed
	KindLink
	KindInline
	KindText
	KindBreak
	KindRule
	KindElement
)

var kindNames = [...]string{
	KindDocument:   "document",
	KindParagraph:  "paragraph",
	KindHeading:    "heading",
	KindBlockquote: "blockquote",
	KindPre:        "pre",
	KindList:       "list",
	KindListItem:   "list_item",
	KindTable:      "table",
	KindRow:        "row",
	KindCell:       "cell",
	KindImage:      "image",
	KindEmbed:      "embed",
	KindLink:       "link",
	KindInline:     "inline",
	KindText:       "text",
	KindBreak:      "break",
	KindRule:       "rule",
	KindElement:    "element",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Attr is a single element attribute. Attribute order is preserved so that
// serialisation is deterministic.
type Attr struct {
	Key string
	Val string
}

// Node is one element of the document tree.
type Node struct {
	Kind    Kind
	Tag     string // element name for KindInline and KindElement
	Level   int    // 1-6 for KindHeading
	Ordered bool   // KindList
	Header  bool   // KindCell rendered as <th>
	ColSpan int    // KindCell, >= 1
	RowSpan int    // KindCell, >= 1
	Text    string // KindText
	Attrs   []Attr
	Style   Style

	Parent   *Node
	Children []*Node
}

// blockElementTags are generic elements laid out as blocks.
var blockElementTags = map[string]bool{
	"div": true, "section": true, "article": true, "aside": true,
	"header": true, "footer": true, "nav": true, "figure": true,
	"figcaption": true, "address": true, "dl": true, "dt": true,
	"dd": true, "caption": true, "main": true, "details": true,
	"summary": true, "hgroup": true,
}

func NewDocument(children ...*Node) *Node { return withChildren(&Node{Kind: KindDocument}, children) }

func NewParagraph(children ...*Node) *Node { return withChildren(&Node{Kind: KindParagraph}, children) }

func NewHeading(level int, children ...*Node) *Node {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return withChildren(&Node{Kind: KindHeading, Level: level}, children)
}

func NewBlockquote(children ...*Node) *Node { return withChildren(&Node{Kind: KindBlockquote}, children) }

func NewPre(children ...*Node) *Node { return withChildren(&Node{Kind: KindPre}, children) }

func NewList(ordered bool, items ...*Node) *Node {
	return withChildren(&Node{Kind: KindList, Ordered: ordered}, items)
}

func NewListItem(children ...*Node) *Node { return withChildren(&Node{Kind: KindListItem}, children) }

func NewTable(rows ...*Node) *Node { return withChildren(&Node{Kind: KindTable}, rows) }

func NewRow(cells ...*Node) *Node { return withChildren(&Node{Kind: KindRow}, cells) }

func NewCell(header bool, children ...*Node) *Node {
	return withChildren(&Node{Kind: KindCell, Header: header, ColSpan: 1, RowSpan: 1}, children)
}

func NewText(s string) *Node { return &Node{Kind: KindText, Text: s} }

func NewInline(tag string, children ...*Node) *Node {
	return withChildren(&Node{Kind: KindInline, Tag: strings.ToLower(tag)}, children)
}

func NewLink(href string, children ...*Node) *Node {
	return withChildren(&Node{Kind: KindLink, Attrs: []Attr{{Key: "href", Val: href}}}, children)
}

func NewImage(src string) *Node {
	return &Node{Kind: KindImage, Attrs: []Attr{{Key: "src", Val: src}}}
}

func NewEmbed(src string) *Node {
	return &Node{Kind: KindEmbed, Attrs: []Attr{{Key: "src", Val: src}}}
}

func NewBreak() *Node { return &Node{Kind: KindBreak} }

func NewRule() *Node { return &Node{Kind: KindRule} }

func NewElement(tag string, children ...*Node) *Node {
	return withChildren(&Node{Kind: KindElement, Tag: strings.ToLower(tag)}, children)
}

func withChildren(n *Node, children []*Node) *Node {
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// IsBlock reports whether the node is laid out as a block.
func (n *Node) IsBlock() bool {
	switch n.Kind {
	case KindDocument, KindParagraph, KindHeading, KindBlockquote, KindPre,
		KindList, KindListItem, KindTable, KindRow, KindCell, KindRule, KindEmbed:
		return true
	case KindElement:
		return blockElementTags[n.Tag]
	}
	return false
}

// IsContainer reports whether the node only structures other blocks and
// never holds a caret itself.
func (n *Node) IsContainer() bool {
	switch n.Kind {
	case KindDocument, KindList, KindTable, KindRow:
		return true
	}
	return false
}

// IsAtom reports whether the node is a leaf that carries no text.
func (n *Node) IsAtom() bool {
	switch n.Kind {
	case KindImage, KindBreak, KindRule, KindEmbed:
		return true
	}
	return false
}

// AppendChild detaches c from any previous parent and appends it to n.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertChild inserts c at index i (clamped to the valid range).
func (n *Node) InsertChild(i int, c *Node) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	c.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// InsertBefore inserts c immediately before ref, which must be a child of n.
func (n *Node) InsertBefore(c, ref *Node) {
	n.InsertChild(n.childIndex(ref), c)
}

// InsertAfter inserts c immediately after ref, which must be a child of n.
func (n *Node) InsertAfter(c, ref *Node) {
	n.InsertChild(n.childIndex(ref)+1, c)
}

// RemoveChild detaches c and returns the index it occupied, or -1.
func (n *Node) RemoveChild(c *Node) int {
	i := n.childIndex(c)
	if i < 0 {
		return -1
	}
	copy(n.Children[i:], n.Children[i+1:])
	n.Children[len(n.Children)-1] = nil
	n.Children = n.Children[:len(n.Children)-1]
	c.Parent = nil
	return i
}

func (n *Node) childIndex(c *Node) int {
	for i, child := range n.Children {
		if child == c {
			return i
		}
	}
	return -1
}

// Index returns the node's position among its siblings, or -1 if detached.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	return n.Parent.childIndex(n)
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWith puts nodes in n's place and detaches n.
func (n *Node) ReplaceWith(nodes ...*Node) {
	p := n.Parent
	if p == nil {
		return
	}
	i := p.RemoveChild(n)
	for j, c := range nodes {
		p.InsertChild(i+j, c)
	}
}

// Unwrap replaces n with its own children.
func (n *Node) Unwrap() {
	children := append([]*Node(nil), n.Children...)
	n.ReplaceWith(children...)
}

// ShallowClone copies the node without children or parent.
func (n *Node) ShallowClone() *Node {
	c := *n
	c.Parent = nil
	c.Children = nil
	c.Attrs = append([]Attr(nil), n.Attrs...)
	c.Style = append(Style(nil), n.Style...)
	return &c
}

// Clone deep-copies the subtree rooted at n.
func (n *Node) Clone() *Node {
	c := n.ShallowClone()
	for _, child := range n.Children {
		c.AppendChild(child.Clone())
	}
	return c
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (n *Node) RemoveAttr(key string) {
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range append([]*Node(nil), n.Children...) {
		c.Walk(fn)
	}
}

// FindAll returns every descendant (including n) of the given kind.
func (n *Node) FindAll(kind Kind) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Ancestor returns the nearest ancestor (excluding n) of the given kind.
func (n *Node) Ancestor(kind Kind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// IsDescendantOf reports whether root is n or one of its ancestors.
func (n *Node) IsDescendantOf(root *Node) bool {
	for c := n; c != nil; c = c.Parent {
		if c == root {
			return true
		}
	}
	return false
}

// Empty reports whether the node has no children and no text.
func (n *Node) Empty() bool {
	return len(n.Children) == 0 && n.Text == ""
}

// sameFormat reports whether two inline nodes can be merged into one.
func sameFormat(a, b *Node) bool {
	if a.Kind != b.Kind || a.Tag != b.Tag {
		return false
	}
	if a.Kind != KindInline && a.Kind != KindLink {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	return a.Style.Equal(b.Style)
}
