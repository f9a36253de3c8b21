package doc

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inlineTags are formatting elements represented as KindInline.
var inlineTags = map[string]bool{
	"b": true, "strong": true, "i": true, "em": true, "u": true,
	"s": true, "strike": true, "del": true, "ins": true, "sub": true,
	"sup": true, "span": true, "font": true, "code": true, "mark": true,
	"small": true, "big": true, "abbr": true, "cite": true, "q": true,
	"kbd": true, "var": true, "samp": true,
}

// Parse reads an HTML fragment (the inner HTML of the editing surface) into
// a document tree.
func Parse(s string) (*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	root := NewDocument()
	for i, n := range nodes {
		convert(root, n, neighbourIsBlock(nodes, i) && hasBlockHTML(nodes))
	}
	Normalize(root)
	return root, nil
}

// MustParse is Parse for trusted literals in tests and defaults.
func MustParse(s string) *Node {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func neighbourIsBlock(nodes []*html.Node, i int) bool {
	if i == 0 || i == len(nodes)-1 {
		return true
	}
	return isBlockHTML(nodes[i-1]) || isBlockHTML(nodes[i+1])
}

func isBlockHTML(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre",
		"ul", "ol", "li", "table", "thead", "tbody", "tfoot", "tr", "td",
		"th", "hr", "iframe":
		return true
	}
	return blockElementTags[n.Data]
}

func convert(parent *Node, h *html.Node, besideBlock bool) {
	switch h.Type {
	case html.TextNode:
		container := parent.IsContainer() && parent.Kind != KindDocument
		if isHTMLSpace(h.Data) && (container || besideBlock) && parent.Kind != KindPre {
			return
		}
		parent.AppendChild(NewText(h.Data))
		return
	case html.ElementNode:
	default:
		return
	}

	tag := h.Data
	var n *Node
	switch tag {
	case "p":
		n = NewParagraph()
	case "h1", "h2", "h3", "h4", "h5", "h6":
		n = NewHeading(int(tag[1] - '0'))
	case "blockquote":
		n = NewBlockquote()
	case "pre":
		n = NewPre()
	case "ul", "ol":
		n = NewList(tag == "ol")
	case "li":
		n = NewListItem()
	case "table":
		n = NewTable()
	case "thead", "tbody", "tfoot":
		// Row groups are flattened; rendering always emits one tbody.
		convertChildren(parent, h)
		return
	case "tr":
		n = NewRow()
	case "td", "th":
		n = NewCell(tag == "th")
	case "img":
		n = &Node{Kind: KindImage}
	case "iframe":
		n = &Node{Kind: KindEmbed}
	case "a":
		n = &Node{Kind: KindLink}
	case "br":
		n = NewBreak()
	case "hr":
		n = NewRule()
	default:
		if inlineTags[tag] {
			n = NewInline(tag)
		} else {
			n = NewElement(tag)
		}
	}

	for _, a := range h.Attr {
		if a.Namespace != "" {
			continue
		}
		key := strings.ToLower(a.Key)
		switch {
		case key == "style":
			n.Style = ParseStyle(a.Val)
		case n.Kind == KindCell && key == "colspan":
			n.ColSpan = parseSpan(a.Val)
		case n.Kind == KindCell && key == "rowspan":
			n.RowSpan = parseSpan(a.Val)
		default:
			n.Attrs = append(n.Attrs, Attr{Key: key, Val: a.Val})
		}
	}
	parent.AppendChild(n)
	convertChildren(n, h)
}

// htmlSpace is inter-element whitespace. U+00A0 is content, not layout.
const htmlSpace = " \t\n\f\r"

func isHTMLSpace(s string) bool {
	return strings.Trim(s, htmlSpace) == ""
}

func convertChildren(n *Node, h *html.Node) {
	var kids []*html.Node
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, c)
	}
	for i, c := range kids {
		convert(n, c, neighbourIsBlock(kids, i) && hasBlockHTML(kids))
	}
}

func hasBlockHTML(kids []*html.Node) bool {
	for _, k := range kids {
		if isBlockHTML(k) {
			return true
		}
	}
	return false
}

func parseSpan(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if n > 1000 {
		return 1000
	}
	return n
}

// Render serialises the children of n as HTML. For a document this is the
// inner HTML of the editing surface.
func Render(n *Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		renderTo(&b, c)
	}
	return b.String()
}

// RenderNode serialises n itself, including its own tag.
func RenderNode(n *Node) string {
	if n.Kind == KindDocument {
		return Render(n)
	}
	var b strings.Builder
	renderTo(&b, n)
	return b.String()
}

// renderTo writes n to b. toHTML never gives a void element children, which
// is the only tree shape html.Render rejects; a node that still fails to
// serialise is written as escaped text so no content is lost.
func renderTo(b *strings.Builder, n *Node) {
	var one strings.Builder
	if err := html.Render(&one, toHTML(n)); err != nil {
		b.WriteString(html.EscapeString(PlainText(n)))
		return
	}
	b.WriteString(one.String())
}

// voidTags are elements serialised without children or a closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// TagName returns the HTML element name a node renders as.
func (n *Node) TagName() string {
	switch n.Kind {
	case KindParagraph:
		return "p"
	case KindHeading:
		return "h" + strconv.Itoa(n.Level)
	case KindBlockquote:
		return "blockquote"
	case KindPre:
		return "pre"
	case KindList:
		if n.Ordered {
			return "ol"
		}
		return "ul"
	case KindListItem:
		return "li"
	case KindTable:
		return "table"
	case KindRow:
		return "tr"
	case KindCell:
		if n.Header {
			return "th"
		}
		return "td"
	case KindImage:
		return "img"
	case KindEmbed:
		return "iframe"
	case KindLink:
		return "a"
	case KindBreak:
		return "br"
	case KindRule:
		return "hr"
	case KindInline, KindElement:
		return n.Tag
	}
	return ""
}

func toHTML(n *Node) *html.Node {
	if n.Kind == KindText {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	tag := n.TagName()
	h := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if n.Kind == KindCell {
		if n.ColSpan > 1 {
			h.Attr = append(h.Attr, html.Attribute{Key: "colspan", Val: strconv.Itoa(n.ColSpan)})
		}
		if n.RowSpan > 1 {
			h.Attr = append(h.Attr, html.Attribute{Key: "rowspan", Val: strconv.Itoa(n.RowSpan)})
		}
	}
	for _, a := range n.Attrs {
		h.Attr = append(h.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if len(n.Style) > 0 {
		h.Attr = append(h.Attr, html.Attribute{Key: "style", Val: n.Style.String()})
	}

	if voidTags[tag] {
		return h
	}
	var body *html.Node
	for _, c := range n.Children {
		if n.Kind != KindTable || c.Kind != KindRow {
			h.AppendChild(toHTML(c))
			continue
		}
		if body == nil {
			body = &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
			h.AppendChild(body)
		}
		body.AppendChild(toHTML(c))
	}
	return h
}
