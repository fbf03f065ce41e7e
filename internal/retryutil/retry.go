package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Backoff doubles the delay after every consecutive failure, up to Max.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	failures int
}

// Next records a failure and returns how long to wait before retrying.
func (b *Backoff) Next() time.Duration {
	base := b.Base
	if base <= 0 {
		base = defaultRetryDelay
	}
	limit := b.Max
	if limit <= 0 {
		limit = defaultMaxDelay
	}
	delay := base
	for i := 0; i < b.failures && delay < limit; i++ {
		delay *= 2
	}
	if delay > limit {
		delay = limit
	}
	b.failures++
	return delay
}

func (b *Backoff) Reset() {
	b.failures = 0
}

// Wait sleeps for the next delay, returning early with ctx.Err() when ctx is
// done.
func (b *Backoff) Wait(ctx context.Context, logger *slog.Logger, name string) error {
	delay := b.Next()
	if logger != nil {
		logger.Info(name+"_retry_scheduled", "delay", delay.String(), "attempt", b.failures)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
