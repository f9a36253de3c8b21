package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/mintaro/internal/doc"
)

// MarkdownParser handles Markdown files using goldmark with GitHub
// extensions (tables, strikethrough, autolinks). The rendered HTML goes
// through the content sanitiser.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	node := md.Parser().Parse(text.NewReader(src))

	title := titleOf(filename)
	for n := node.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			if t := strings.TrimSpace(headingText(h, src)); t != "" {
				title = t
			}
			break
		}
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, node); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	root, err := doc.Parse(doc.SanitizeContent(buf.String()))
	if err != nil {
		return nil, fmt.Errorf("parse markdown html: %w", err)
	}
	return &Document{Title: title, Root: root}, nil
}

// headingText collects the text segments under a heading.
func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(headingText(c, src))
	}
	return buf.String()
}
