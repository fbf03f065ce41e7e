package servecmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/quailyquaily/tgrelay/internal/access"
	"github.com/quailyquaily/tgrelay/internal/configutil"
	"github.com/quailyquaily/tgrelay/internal/delivery"
	"github.com/quailyquaily/tgrelay/internal/telegramapi"
	"github.com/quailyquaily/tgrelay/internal/telegramutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Dependencies struct {
	LoggerFromViper       func() (*slog.Logger, error)
	SplitOptionsFromViper func(cmd *cobra.Command) telegramutil.SplitOptions
	ClientFromViper       func(cmd *cobra.Command) (*telegramapi.Client, error)
}

// New returns the serve command: a long-polling bot that renders every
// message it receives and replies with the result.
func New(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a Telegram bot that replies with the rendered form of each message",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := deps.LoggerFromViper()
			if err != nil {
				return err
			}
			client, err := deps.ClientFromViper(cmd)
			if err != nil {
				return err
			}
			allowed, err := parseUserIDs(configutil.FlagOrViperStringArray(cmd, "telegram-allowed-user-id", "telegram.allowed_user_ids"))
			if err != nil {
				return err
			}
			pollTimeout := viper.GetDuration("telegram.poll_timeout")
			if cmd.Flags().Changed("telegram-poll-timeout") {
				pollTimeout, _ = cmd.Flags().GetDuration("telegram-poll-timeout")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			me, err := client.GetMe(ctx)
			if err != nil {
				return fmt.Errorf("telegram getMe: %w", err)
			}
			guard := access.NewGuard(allowed, access.NewWarnedSet())
			if guard.Open() {
				logger.Warn("telegram_allowlist_empty", "hint", "every user may talk to the bot; set telegram.allowed_user_ids to restrict it")
			}
			logger.Info("telegram_start", "bot", "@"+me.Username, "allowed_users", len(allowed), "poll_timeout", pollTimeout.String())

			b := &bot{
				api:   client,
				guard: guard,
				deliverer: delivery.New(client, delivery.Options{
					Split:  deps.SplitOptionsFromViper(cmd),
					Logger: logger,
				}),
				respond:        echoResponder{},
				logger:         logger,
				pollTimeout:    pollTimeout,
				typingInterval: 4 * time.Second,
			}
			b.run(ctx)
			logger.Info("telegram_stop")
			return nil
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().StringArray("telegram-allowed-user-id", nil, "Allowed Telegram user id (repeatable). Empty allows everyone.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")

	return cmd
}

func parseUserIDs(values []string) ([]int64, error) {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram user id %q: %w", v, err)
		}
		out = append(out, id)
	}
	return out, nil
}
