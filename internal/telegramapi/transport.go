package telegramapi

import (
	"context"
	"log/slog"

	"github.com/quailyquaily/tgrelay/internal/delivery"
)

var _ delivery.Transport = (*Client)(nil)

// Send implements delivery.Transport with sendMessage.
func (c *Client) Send(ctx context.Context, to delivery.Recipient, text string, dialect delivery.Dialect) error {
	err := c.SendMessage(ctx, SendMessageRequest{
		ChatID:                to.ChatID,
		MessageThreadID:       to.ThreadID,
		Text:                  text,
		ParseMode:             string(dialect),
		DisableWebPagePreview: to.DisablePreview,
		ReplyToMessageID:      to.ReplyToMessageID,
	})
	if err != nil && IsMarkdownParseError(err) {
		slog.Debug("telegram_send_markdown_parse_error", "chat_id", to.ChatID, "parse_mode", string(dialect), "error", err)
	}
	return err
}
