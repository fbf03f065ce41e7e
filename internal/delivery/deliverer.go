package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/quailyquaily/tgrelay/internal/telegramutil"
)

const defaultEmptyText = "(empty)"

// Recipient addresses one reply.
type Recipient struct {
	ChatID           int64
	ThreadID         int64
	ReplyToMessageID int64
	DisablePreview   bool
}

// Transport sends one message. Errors matching ErrMarkupRejected are
// retried with a less formatted tier; every other error aborts the reply.
type Transport interface {
	Send(ctx context.Context, to Recipient, text string, dialect Dialect) error
}

type Options struct {
	Split     telegramutil.SplitOptions
	Tiers     []Tier
	EmptyText string
	Logger    *slog.Logger
}

// ChunkResult describes how one chunk was delivered. Tier is empty when
// every tier rejected it.
type ChunkResult struct {
	Index int
	Chars int
	Tier  string
	Err   error
}

type Report struct {
	DeliveryID string
	Chunks     []ChunkResult
}

// Failed returns the number of chunks no tier could deliver.
func (r Report) Failed() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Err != nil {
			n++
		}
	}
	return n
}

type Deliverer struct {
	transport Transport
	opts      Options
}

func New(transport Transport, opts Options) *Deliverer {
	if len(opts.Tiers) == 0 {
		opts.Tiers = DefaultTiers()
	}
	if strings.TrimSpace(opts.EmptyText) == "" {
		opts.EmptyText = defaultEmptyText
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Deliverer{transport: transport, opts: opts}
}

// RenderAndDeliver splits raw into chunks, repairs formatting across chunk
// boundaries and sends the chunks in order, one at a time. Only the first
// chunk replies to to.ReplyToMessageID.
//
// A chunk rejected by every tier is logged and recorded in the report but
// does not stop the reply. Transport failures and context cancellation
// abandon the remaining chunks and are returned.
func (d *Deliverer) RenderAndDeliver(ctx context.Context, to Recipient, raw string) (Report, error) {
	report := Report{DeliveryID: uuid.NewString()}
	logger := d.opts.Logger.With("delivery_id", report.DeliveryID, "chat_id", to.ChatID)

	if strings.TrimSpace(raw) == "" {
		raw = d.opts.EmptyText
	}
	chunks := telegramutil.PrepareChunks(raw, d.opts.Split)
	logger.Debug("delivery_start", "chunks", len(chunks))

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		target := to
		if i > 0 {
			target.ReplyToMessageID = 0
		}
		send := func(ctx context.Context, text string, dialect Dialect) error {
			return d.transport.Send(ctx, target, text, dialect)
		}

		res := ChunkResult{Index: i, Chars: utf8.RuneCountInString(chunk)}
		tier, err := FirstAccepted(ctx, d.opts.Tiers, chunk, send, logger.With("chunk", i))
		switch {
		case err == nil:
			res.Tier = tier.Name
		case errors.Is(err, ErrAllTiersRejected):
			res.Err = err
			logger.Error("delivery_chunk_failed", "chunk", i, "error", err)
		default:
			res.Err = err
			report.Chunks = append(report.Chunks, res)
			return report, fmt.Errorf("deliver chunk %d/%d: %w", i+1, len(chunks), err)
		}
		report.Chunks = append(report.Chunks, res)
	}
	return report, nil
}
