package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quailyquaily/tgrelay/internal/telegramutil"
)

// Dialect is the parse mode a chunk is sent with. The zero value sends the
// text unformatted.
type Dialect string

const (
	DialectMarkdownV2 Dialect = "MarkdownV2"
	DialectPlain      Dialect = ""
)

var (
	// ErrMarkupRejected is matched by transport errors meaning the message
	// was refused as malformed, as opposed to not being delivered at all.
	ErrMarkupRejected = errors.New("markup rejected")
	// ErrAllTiersRejected is returned by FirstAccepted when every tier was
	// rejected.
	ErrAllTiersRejected = errors.New("all formatting tiers rejected")
)

// IsRejected reports whether err is a markup rejection that a less formatted
// tier may get past.
func IsRejected(err error) bool {
	return errors.Is(err, ErrMarkupRejected)
}

// Tier is one formatting attempt: the chunk is passed through Transform
// (nil keeps it as is) and sent with Dialect.
type Tier struct {
	Name      string
	Dialect   Dialect
	Transform func(string) string
}

func (t Tier) apply(text string) string {
	if t.Transform == nil {
		return text
	}
	return t.Transform(text)
}

// DefaultTiers tries converted MarkdownV2, then fully escaped MarkdownV2,
// then the raw text without a parse mode.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "markdown_v2", Dialect: DialectMarkdownV2, Transform: telegramutil.ConvertMarkdownV2},
		{Name: "escaped", Dialect: DialectMarkdownV2, Transform: telegramutil.EscapeMarkdownV2},
		{Name: "plain", Dialect: DialectPlain},
	}
}

// SendFunc transmits text once with the given dialect.
type SendFunc func(ctx context.Context, text string, dialect Dialect) error

// FirstAccepted sends text through tiers in order and returns the first tier
// that was accepted. A rejection moves on to the next tier; any other error
// is returned right away.
func FirstAccepted(ctx context.Context, tiers []Tier, text string, send SendFunc, logger *slog.Logger) (Tier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var lastErr error
	for _, tier := range tiers {
		err := send(ctx, tier.apply(text), tier.Dialect)
		if err == nil {
			return tier, nil
		}
		if !IsRejected(err) {
			return tier, err
		}
		logger.Warn("delivery_tier_rejected", "tier", tier.Name, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		return Tier{}, ErrAllTiersRejected
	}
	return Tier{}, fmt.Errorf("%w: %w", ErrAllTiersRejected, lastErr)
}
