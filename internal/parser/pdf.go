package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/mintaro/internal/doc"
)

// PDFParser imports the text layer of a PDF, one rule between pages.
// Layout, fonts and images are not carried over.
type PDFParser struct {
	// FallbackPdftotext shells out to pdftotext when the library cannot
	// read the file.
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	pages, err := readPages(data)
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return &Document{Title: titleOf(filename), Root: pagesDocument(pages)}, nil
}

// pagesDocument lays out page texts as paragraphs, one rule between pages.
// Pages with no text are skipped.
func pagesDocument(pages []string) *doc.Node {
	root := doc.NewDocument()
	for _, page := range pages {
		paras := splitParagraphs(page)
		if len(paras) == 0 {
			continue
		}
		if len(root.Children) > 0 {
			root.AppendChild(doc.NewRule())
		}
		for _, lines := range paras {
			root.AppendChild(lineParagraph(lines))
		}
	}
	return root
}

// readPages returns the plain text of every page. Unreadable pages come
// back empty rather than failing the import.
func readPages(data []byte) (pages []string, err error) {
	// The library panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pdftotextPages runs pdftotext over a temp copy; it separates pages with
// form feeds.
func pdftotextPages(data []byte) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	tmp, err := os.CreateTemp("", "mintaro-import-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(data)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
