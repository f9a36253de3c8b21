package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/mintaro/internal/doc"
)

// DOCXParser imports .docx paragraphs. Heading styles map to h1-h6 and bold,
// italic and underline runs keep their formatting. Tables, images and
// other run properties are dropped.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	file, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &Document{Title: titleOf(filename), Root: doc.NewDocument()}
	titled := false
	for _, item := range file.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		runs := docxRuns(para)
		if len(runs) == 0 {
			continue
		}
		level := docxHeadingLevel(para)
		if level == 0 {
			out.Root.AppendChild(doc.NewParagraph(runs...))
			continue
		}
		h := doc.NewHeading(level, runs...)
		if level == 1 && !titled {
			out.Title, titled = doc.PlainText(h), true
		}
		out.Root.AppendChild(h)
	}
	return out, nil
}

// docxHeadingLevel reads "Heading N" paragraph styles; 0 means body text.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	level, ok := strings.CutPrefix(style, "heading")
	if !ok || len(level) != 1 || level[0] < '1' || level[0] > '6' {
		return 0
	}
	return int(level[0] - '0')
}

// docxRuns converts the runs of para into text nodes wrapped in b, i and u
// as the run properties ask. A paragraph of only whitespace yields nil.
func docxRuns(para *docx.Paragraph) []*doc.Node {
	var nodes []*doc.Node
	blank := true
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var text strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				text.WriteString(t.Text)
			}
		}
		if text.Len() == 0 {
			continue
		}
		if strings.TrimSpace(text.String()) != "" {
			blank = false
		}
		n := doc.NewText(text.String())
		if rp := run.RunProperties; rp != nil {
			if rp.Underline != nil {
				n = doc.NewInline("u", n)
			}
			if rp.Italic != nil {
				n = doc.NewInline("i", n)
			}
			if rp.Bold != nil {
				n = doc.NewInline("b", n)
			}
		}
		nodes = append(nodes, n)
	}
	if blank {
		return nil
	}
	return nodes
}
