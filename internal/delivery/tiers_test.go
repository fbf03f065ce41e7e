package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFirstAccepted(t *testing.T) {
	t.Parallel()

	tiers := []Tier{
		{Name: "upper", Dialect: "A", Transform: strings.ToUpper},
		{Name: "lower", Dialect: "B", Transform: strings.ToLower},
		{Name: "raw", Dialect: "C"},
	}

	tests := []struct {
		name      string
		reject    map[Dialect]bool
		wantTier  string
		wantTexts []string
		wantErr   error
	}{
		{
			name:      "first_tier",
			wantTier:  "upper",
			wantTexts: []string{"HELLO"},
		},
		{
			name:      "second_tier",
			reject:    map[Dialect]bool{"A": true},
			wantTier:  "lower",
			wantTexts: []string{"HELLO", "hello"},
		},
		{
			name:      "last_tier_untransformed",
			reject:    map[Dialect]bool{"A": true, "B": true},
			wantTier:  "raw",
			wantTexts: []string{"HELLO", "hello", "HeLLo"},
		},
		{
			name:      "all_rejected",
			reject:    map[Dialect]bool{"A": true, "B": true, "C": true},
			wantTexts: []string{"HELLO", "hello", "HeLLo"},
			wantErr:   ErrAllTiersRejected,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var texts []string
			send := func(_ context.Context, text string, dialect Dialect) error {
				texts = append(texts, text)
				if tt.reject[dialect] {
					return ErrMarkupRejected
				}
				return nil
			}
			tier, err := FirstAccepted(context.Background(), tiers, "HeLLo", send, quietLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("FirstAccepted() error = %v", err)
			}
			if tier.Name != tt.wantTier {
				t.Fatalf("tier mismatch: got %q want %q", tier.Name, tt.wantTier)
			}
			if strings.Join(texts, ",") != strings.Join(tt.wantTexts, ",") {
				t.Fatalf("texts mismatch: got %q want %q", texts, tt.wantTexts)
			}
		})
	}
}

func TestFirstAcceptedStopsOnTransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("dial tcp: i/o timeout")
	calls := 0
	send := func(context.Context, string, Dialect) error {
		calls++
		return boom
	}
	_, err := FirstAccepted(context.Background(), DefaultTiers(), "x", send, quietLogger())
	if !errors.Is(err, boom) || errors.Is(err, ErrAllTiersRejected) {
		t.Fatalf("expected the transport error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDefaultTiersOrder(t *testing.T) {
	t.Parallel()

	tiers := DefaultTiers()
	want := []struct {
		name    string
		dialect Dialect
	}{
		{"markdown_v2", DialectMarkdownV2},
		{"escaped", DialectMarkdownV2},
		{"plain", DialectPlain},
	}
	if len(tiers) != len(want) {
		t.Fatalf("tier count mismatch: %d", len(tiers))
	}
	for i, w := range want {
		if tiers[i].Name != w.name || tiers[i].Dialect != w.dialect {
			t.Fatalf("tier %d: got %s/%q", i, tiers[i].Name, tiers[i].Dialect)
		}
	}
	if got := tiers[2].apply("*raw*"); got != "*raw*" {
		t.Fatalf("plain tier must not transform: %q", got)
	}
}
