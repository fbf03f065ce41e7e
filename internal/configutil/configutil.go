package configutil

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FlagOrViperString prefers an explicitly set flag over the viper key.
func FlagOrViperString(cmd *cobra.Command, flagName, viperKey string) string {
	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			v, _ := cmd.Flags().GetString(flagName)
			return v
		}
	}
	return viper.GetString(viperKey)
}

func FlagOrViperInt(cmd *cobra.Command, flagName, viperKey string) int {
	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			v, _ := cmd.Flags().GetInt(flagName)
			return v
		}
	}
	return viper.GetInt(viperKey)
}

func FlagOrViperInt64(cmd *cobra.Command, flagName, viperKey string) int64 {
	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			v, _ := cmd.Flags().GetInt64(flagName)
			return v
		}
	}
	return viper.GetInt64(viperKey)
}

// FlagOrViperStringArray accepts repeated flags, and comma separated values
// from env or config.
func FlagOrViperStringArray(cmd *cobra.Command, flagName, viperKey string) []string {
	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			v, _ := cmd.Flags().GetStringArray(flagName)
			return v
		}
	}
	var out []string
	for _, item := range viper.GetStringSlice(viperKey) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
