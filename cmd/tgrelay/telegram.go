package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/configutil"
	"github.com/quailyquaily/tgrelay/internal/telegramapi"
	"github.com/quailyquaily/tgrelay/internal/telegramutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func splitOptionsFromViper(cmd *cobra.Command) telegramutil.SplitOptions {
	return telegramutil.SplitOptions{
		MaxChars:            configutil.FlagOrViperInt(cmd, "max-len", "render.max_len"),
		CutThresholdDivisor: configutil.FlagOrViperInt(cmd, "cut-threshold-divisor", "render.cut_threshold_divisor"),
	}
}

func telegramClientFromViper(cmd *cobra.Command) (*telegramapi.Client, error) {
	token := strings.TrimSpace(configutil.FlagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
	if token == "" {
		return nil, fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or TGRELAY_TELEGRAM_BOT_TOKEN)")
	}
	httpClient := &http.Client{Timeout: viper.GetDuration("telegram.request_timeout")}
	return telegramapi.New(httpClient, viper.GetString("telegram.base_url"), token), nil
}
