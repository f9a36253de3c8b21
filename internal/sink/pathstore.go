package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/mintaro/internal/pathstore"
)

// DefaultPrefix is the key prefix documents are stored under.
const DefaultPrefix = "mintaro/documents"

// Pathstore stores records as pathstore nodes at {prefix}/{id}.
type Pathstore struct {
	client *pathstore.Client
	prefix string
	log    *slog.Logger
}

func NewPathstore(client *pathstore.Client, prefix string, log *slog.Logger) *Pathstore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Pathstore{client: client, prefix: prefix, log: log}
}

func (p *Pathstore) key(id string) string {
	return p.prefix + "/" + id
}

// classify marks throttling, server errors and transport failures as
// retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *pathstore.StatusError
	if errors.As(err, &se) {
		if se.Temporary() {
			return &RetryableError{Err: err}
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RetryableError{Err: err}
}

func (p *Pathstore) Store(ctx context.Context, rec Record) error {
	err := p.client.PutNode(ctx, p.key(rec.ID), pathstore.NodeRequest{
		Value:     rec,
		MergeMode: "replace",
		Source:    "mintaro",
	})
	if err != nil {
		return classify(fmt.Errorf("store %s: %w", rec.ID, err))
	}
	p.log.Debug("document stored", "id", rec.ID, "words", rec.WordCount)
	return nil
}

func (p *Pathstore) Load(ctx context.Context, id string) (*Record, error) {
	node, err := p.client.GetNode(ctx, p.key(id))
	if err != nil {
		return nil, classify(fmt.Errorf("load %s: %w", id, err))
	}
	if node == nil {
		return nil, ErrNotFound
	}
	var rec Record
	if err := json.Unmarshal(node.Value, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &rec, nil
}

func (p *Pathstore) Delete(ctx context.Context, id string) error {
	if err := p.client.DeleteNode(ctx, p.key(id), false); err != nil {
		return classify(fmt.Errorf("delete %s: %w", id, err))
	}
	return nil
}
