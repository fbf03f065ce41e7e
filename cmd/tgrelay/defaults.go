package main

import (
	"time"

	"github.com/quailyquaily/tgrelay/internal/telegramapi"
	"github.com/quailyquaily/tgrelay/internal/telegramutil"
	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)

	// Rendering
	viper.SetDefault("render.max_len", telegramutil.DefaultMaxMessageChars)
	viper.SetDefault("render.cut_threshold_divisor", telegramutil.DefaultCutThresholdDivisor)

	// Telegram
	viper.SetDefault("telegram.base_url", telegramapi.DefaultBaseURL)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.default_chat_id", int64(0))
	viper.SetDefault("telegram.allowed_user_ids", []string{})
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.request_timeout", 60*time.Second)
	viper.SetDefault("telegram.disable_preview", true)
}
