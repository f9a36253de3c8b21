// Package sink stores saved editor content. The editor itself performs no
// I/O; the host wires a Sink into the save callback.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/mintaro/internal/editor"
)

// ErrNotFound is returned by Load for an unknown document.
var ErrNotFound = errors.New("document not found")

// Record is one saved document.
type Record struct {
	ID        string    `json:"id"`
	HTML      string    `json:"html"`
	Text      string    `json:"text"`
	WordCount int       `json:"wordCount"`
	SavedAt   time.Time `json:"savedAt"`
}

// RecordOf builds the record stored for a save payload.
func RecordOf(id string, p editor.Payload) Record {
	return Record{
		ID:        id,
		HTML:      p.HTML,
		Text:      p.Text,
		WordCount: p.WordCount,
		SavedAt:   p.Timestamp,
	}
}

// Sink persists records.
type Sink interface {
	Store(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
}

// SaveFunc adapts s to the editor save callback for document id.
func SaveFunc(s Sink, id string) editor.SaveFunc {
	return func(ctx context.Context, p editor.Payload) error {
		return s.Store(ctx, RecordOf(id, p))
	}
}
