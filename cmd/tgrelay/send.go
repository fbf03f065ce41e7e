package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quailyquaily/tgrelay/internal/clifmt"
	"github.com/quailyquaily/tgrelay/internal/configutil"
	"github.com/quailyquaily/tgrelay/internal/delivery"
	"github.com/quailyquaily/tgrelay/internal/logutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// telegramMessageLimit is the hard Bot API limit for one message.
const telegramMessageLimit = 4096

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [file]",
		Short: "Render a markdown reply and deliver it to a Telegram chat",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			fm, body, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			client, err := telegramClientFromViper(cmd)
			if err != nil {
				return err
			}

			to := recipientFor(cmd, fm.ChatID, fm.ThreadID, fm.ReplyTo, fm.DisablePreview)
			if to.ChatID == 0 {
				return fmt.Errorf("missing chat id (set via --chat-id, chat_id frontmatter, or TGRELAY_TELEGRAM_DEFAULT_CHAT_ID)")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d := delivery.New(client, delivery.Options{
				Split:  splitOptionsFromViper(cmd),
				Logger: logger,
			})
			report, err := d.RenderAndDeliver(ctx, to, body)
			printReport(cmd, report)
			if err != nil {
				return err
			}
			if n := report.Failed(); n > 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), clifmt.Warn(fmt.Sprintf("%d of %d chunk(s) were rejected by every tier", n, len(report.Chunks))))
			}
			return nil
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().Int64("chat-id", 0, "Target chat id (overrides frontmatter chat_id).")
	cmd.Flags().Int64("thread-id", 0, "Forum topic id (overrides frontmatter thread_id).")
	cmd.Flags().Int64("reply-to", 0, "Message id the first chunk replies to (overrides frontmatter reply_to).")
	cmd.Flags().Bool("disable-preview", true, "Disable link previews.")

	return cmd
}

// recipientFor resolves the target: explicit flags win over frontmatter,
// frontmatter wins over config.
func recipientFor(cmd *cobra.Command, chatID, threadID, replyTo int64, disablePreview *bool) delivery.Recipient {
	to := delivery.Recipient{
		ChatID:           chatID,
		ThreadID:         threadID,
		ReplyToMessageID: replyTo,
		DisablePreview:   viper.GetBool("telegram.disable_preview"),
	}
	if disablePreview != nil {
		to.DisablePreview = *disablePreview
	}
	if cmd.Flags().Changed("chat-id") || to.ChatID == 0 {
		to.ChatID = configutil.FlagOrViperInt64(cmd, "chat-id", "telegram.default_chat_id")
	}
	if cmd.Flags().Changed("thread-id") {
		to.ThreadID, _ = cmd.Flags().GetInt64("thread-id")
	}
	if cmd.Flags().Changed("reply-to") {
		to.ReplyToMessageID, _ = cmd.Flags().GetInt64("reply-to")
	}
	if cmd.Flags().Changed("disable-preview") {
		to.DisablePreview, _ = cmd.Flags().GetBool("disable-preview")
	}
	return to
}

func printReport(cmd *cobra.Command, report delivery.Report) {
	out := cmd.OutOrStdout()
	if report.DeliveryID != "" {
		_, _ = fmt.Fprintf(out, "%s %s\n", clifmt.Key("delivery:"), report.DeliveryID)
	}
	for _, c := range report.Chunks {
		status := clifmt.Success(c.Tier)
		if c.Err != nil {
			status = clifmt.Warn("rejected")
		}
		_, _ = fmt.Fprintf(out, "  chunk %d/%d  %-12s %s\n", c.Index+1, len(report.Chunks), status, clifmt.Dim(fmt.Sprintf("%d chars", c.Chars)))
	}
}
