package servecmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/quailyquaily/tgrelay/internal/access"
	"github.com/quailyquaily/tgrelay/internal/delivery"
	"github.com/quailyquaily/tgrelay/internal/outputfmt"
	"github.com/quailyquaily/tgrelay/internal/retryutil"
	"github.com/quailyquaily/tgrelay/internal/telegramapi"
)

const (
	deniedText = "Sorry, this is a private bot. Access denied."
	helpText   = "Send me markdown and I will reply with it rendered for Telegram.\n" +
		"Long messages are split into chunks; formatting left open at a split is closed and reopened.\n" +
		"Commands: /start, /help"
)

type botAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegramapi.Update, int64, error)
	SendChatAction(ctx context.Context, chatID int64, action string) error
	LeaveChat(ctx context.Context, chatID int64) error
}

// Responder produces the reply for an allowed message.
type Responder interface {
	Respond(ctx context.Context, msg *telegramapi.Message) (string, error)
}

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, msg *telegramapi.Message) (string, error) {
	return messageText(msg), nil
}

type bot struct {
	api            botAPI
	guard          *access.Guard
	deliverer      *delivery.Deliverer
	respond        Responder
	logger         *slog.Logger
	pollTimeout    time.Duration
	typingInterval time.Duration
}

// run polls for updates until ctx is done. Updates are handled one at a
// time so replies in one chat keep their order.
func (b *bot) run(ctx context.Context) {
	var offset int64
	backoff := &retryutil.Backoff{}
	for ctx.Err() == nil {
		updates, next, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if telegramapi.IsPollTimeoutError(err) {
				continue
			}
			b.logger.Warn("telegram_get_updates_error", "error", outputfmt.FormatErrorForDisplay(err))
			if err := backoff.Wait(ctx, b.logger, "telegram_get_updates"); err != nil {
				return
			}
			continue
		}
		backoff.Reset()
		offset = next
		for _, u := range updates {
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *bot) handleUpdate(ctx context.Context, u telegramapi.Update) {
	if u.MyChatMember != nil {
		b.handleMembership(ctx, u.MyChatMember)
		return
	}
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	text := messageText(msg)
	if text == "" {
		return
	}
	chatID := msg.Chat.ID
	to := delivery.Recipient{
		ChatID:           chatID,
		ReplyToMessageID: msg.MessageID,
		DisablePreview:   true,
	}
	if msg.IsTopicMessage {
		to.ThreadID = msg.MessageThreadID
	}

	if !b.guard.Allowed(msg.From.ID) {
		notify := b.guard.ShouldNotifyDenied(msg.From.ID)
		b.logger.Warn("telegram_unauthorized_user",
			"user_id", msg.From.ID,
			"chat_id", chatID,
			"notified", notify,
			"denied_users", b.guard.DeniedCount(),
		)
		if notify {
			b.reply(ctx, to, deniedText)
		}
		return
	}

	cmd, _ := splitCommand(text)
	switch normalizeSlashCommand(cmd) {
	case "/start", "/help":
		b.reply(ctx, to, helpText)
		return
	}

	b.logger.Info("telegram_message",
		"chat_id", chatID,
		"user", telegramapi.DisplayName(msg.From),
		"message_id", msg.MessageID,
		"chars", len([]rune(text)),
	)
	stopTyping := startTypingTicker(ctx, b.api, chatID, "typing", b.typingInterval)
	out, err := b.respond.Respond(ctx, msg)
	stopTyping()
	if err != nil {
		b.logger.Warn("telegram_respond_error", "chat_id", chatID, "error", outputfmt.FormatErrorForDisplay(err))
		return
	}
	b.reply(ctx, to, out)
}

func (b *bot) handleMembership(ctx context.Context, u *telegramapi.ChatMemberUpdated) {
	if !u.Joined() || u.Chat == nil {
		return
	}
	var fromID int64
	if u.From != nil {
		fromID = u.From.ID
	}
	if b.guard.Allowed(fromID) {
		b.logger.Info("telegram_added_to_chat", "chat_id", u.Chat.ID, "by", fromID)
		return
	}
	b.logger.Warn("telegram_unauthorized_add", "chat_id", u.Chat.ID, "by", fromID)
	if err := b.api.LeaveChat(ctx, u.Chat.ID); err != nil {
		b.logger.Warn("telegram_leave_chat_error", "chat_id", u.Chat.ID, "error", outputfmt.FormatErrorForDisplay(err))
	}
}

func (b *bot) reply(ctx context.Context, to delivery.Recipient, text string) {
	report, err := b.deliverer.RenderAndDeliver(ctx, to, text)
	if err != nil {
		b.logger.Warn("telegram_send_error", "chat_id", to.ChatID, "delivery_id", report.DeliveryID, "error", outputfmt.FormatErrorForDisplay(err))
		return
	}
	if n := report.Failed(); n > 0 {
		b.logger.Warn("telegram_send_partial", "chat_id", to.ChatID, "delivery_id", report.DeliveryID, "failed_chunks", n)
	}
}

func messageText(msg *telegramapi.Message) string {
	if msg == nil {
		return ""
	}
	if text := strings.TrimSpace(msg.Text); text != "" {
		return msg.Text
	}
	return msg.Caption
}

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// normalizeSlashCommand lowercases cmd and drops a "@BotName" suffix.
// Non-commands yield "".
func normalizeSlashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return ""
	}
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

// startTypingTicker keeps the chat action visible until the returned stop
// func is called.
func startTypingTicker(ctx context.Context, api botAPI, chatID int64, action string, interval time.Duration) func() {
	if api == nil || chatID == 0 {
		return func() {}
	}
	if interval <= 0 {
		interval = 4 * time.Second
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		_ = api.SendChatAction(ctx, chatID, action)
		for {
			select {
			case <-ticker.C:
				_ = api.SendChatAction(ctx, chatID, action)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		select {
		case <-done:
		default:
			close(done)
		}
		ticker.Stop()
		<-stopped
	}
}
