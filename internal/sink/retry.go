package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
	if base > 10*time.Second {
		base = 10 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// DefaultRetries is the number of store attempts when none is configured.
const DefaultRetries = 3

// Retrying retries retryable Store failures with jittered backoff. Load and
// Delete are passed through.
type Retrying struct {
	next     Sink
	attempts int
	log      *slog.Logger

	// wait sleeps between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Sink, attempts int, log *slog.Logger) *Retrying {
	if attempts <= 0 {
		attempts = DefaultRetries
	}
	return &Retrying{next: next, attempts: attempts, log: log, wait: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Retrying) Store(ctx context.Context, rec Record) error {
	var lastErr error
	for attempt := range r.attempts {
		lastErr = r.next.Store(ctx, rec)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == r.attempts-1 {
			break
		}
		r.log.Warn("retryable store error", "id", rec.ID, "attempt", attempt, "error", lastErr)
		if err := r.wait(ctx, Backoff(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("store %s: giving up after %d attempts: %w", rec.ID, r.attempts, lastErr)
}

func (r *Retrying) Load(ctx context.Context, id string) (*Record, error) {
	return r.next.Load(ctx, id)
}

func (r *Retrying) Delete(ctx context.Context, id string) error {
	return r.next.Delete(ctx, id)
}
