package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/mintaro/internal/doc"
)

// TextParser handles plain text files. Blank lines separate paragraphs;
// single newlines become line breaks.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs [][]string
	var current []string

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	root := doc.NewDocument()
	for _, para := range paragraphs {
		root.AppendChild(lineParagraph(para))
	}
	return &Document{Title: titleOf(filename), Root: root}, nil
}

// lineParagraph joins lines into one paragraph with line breaks.
func lineParagraph(lines []string) *doc.Node {
	p := doc.NewParagraph()
	for i, line := range lines {
		if i > 0 {
			p.AppendChild(doc.NewBreak())
		}
		p.AppendChild(doc.NewText(line))
	}
	return p
}

// splitParagraphs splits text on blank lines into trimmed line groups.
func splitParagraphs(text string) [][]string {
	var out [][]string
	var current []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}
