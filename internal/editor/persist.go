package editor

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/mintaro/internal/doc"
)

// Payload is what the host receives on save.
type Payload struct {
	HTML      string    `json:"html"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	WordCount int       `json:"wordCount"`
}

// SaveFunc is the host save callback. The editor performs no I/O itself.
type SaveFunc func(ctx context.Context, p Payload) error

// Save records any pending typed change, builds the payload and hands it to
// OnSave. The callback runs without the editor lock held.
func (e *Editor) Save(ctx context.Context) (Payload, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Payload{}, ErrClosed
	}
	e.flushLocked()
	c := e.contentLocked()
	p := Payload{
		HTML:      c.HTML,
		Text:      c.Text,
		Timestamp: e.opts.Clock.Now().UTC(),
		WordCount: len(strings.Fields(c.Text)),
	}
	save := e.opts.OnSave
	e.mu.Unlock()

	if save == nil {
		return p, nil
	}
	if err := save(ctx, p); err != nil {
		e.mu.Lock()
		e.noticeLocked(err)
		e.mu.Unlock()
		return p, fmt.Errorf("save: %w", err)
	}
	e.log.Debug("content saved", "words", p.WordCount)
	return p, nil
}

// Download is a file handed to the browser.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DefaultExportName is used when the requested name has nothing usable.
const DefaultExportName = "document"

// ExportFilename reduces name to a safe base name ending in .html.
func ExportFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeFilename.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = DefaultExportName
	}
	return base + ".html"
}

// ExportHTML wraps the content in a minimal standalone HTML document.
func (e *Editor) ExportHTML(filename string) Download {
	name := ExportFilename(filename)
	e.mu.Lock()
	body := doc.Render(e.root)
	e.mu.Unlock()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(strings.TrimSuffix(name, ".html")))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return Download{
		Filename:    name,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(b.String()),
	}
}
