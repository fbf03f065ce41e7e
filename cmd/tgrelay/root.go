package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/quailyquaily/tgrelay/cmd/tgrelay/servecmd"
	"github.com/quailyquaily/tgrelay/internal/logutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "TGRELAY"
)

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tgrelay",
		Short:         "Render chat model markdown for Telegram and deliver it",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))

	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error (defaults to info; debug if --trace).")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")
	cmd.PersistentFlags().Bool("trace", false, "Print extra debug info to stderr.")
	cmd.PersistentFlags().Int("max-len", 4000, "Maximum characters per message chunk.")
	cmd.PersistentFlags().Int("cut-threshold-divisor", 4, "Ignore cut points within the first max-len/N characters of a chunk.")

	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.add_source", cmd.PersistentFlags().Lookup("log-add-source"))
	_ = viper.BindPFlag("trace", cmd.PersistentFlags().Lookup("trace"))
	_ = viper.BindPFlag("render.max_len", cmd.PersistentFlags().Lookup("max-len"))
	_ = viper.BindPFlag("render.cut_threshold_divisor", cmd.PersistentFlags().Lookup("cut-threshold-divisor"))

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(servecmd.New(servecmd.Dependencies{
		LoggerFromViper:       logutil.LoggerFromViper,
		SplitOptionsFromViper: splitOptionsFromViper,
		ClientFromViper:       telegramClientFromViper,
	}))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func initConfig() {
	initViperDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}
