package retryutil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffNext(t *testing.T) {
	t.Parallel()

	b := &Backoff{Base: time.Second, Max: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("attempt %d: got %s want %s", i, got, w)
		}
	}
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Fatalf("after reset: got %s", got)
	}
}

func TestBackoffWaitHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Backoff{Base: time.Hour}
	if err := b.Wait(ctx, nil, "poll"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffWaitSleeps(t *testing.T) {
	t.Parallel()

	b := &Backoff{Base: time.Millisecond}
	if err := b.Wait(context.Background(), nil, "poll"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}
