package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pshvedko/pianola/config"
)

type settingsKey struct{}

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "pianola",
	Short: "Standard MIDI File player and converter",
	Long: `pianola decodes Standard MIDI Files, plays them on an additive piano,
and converts between MIDI and a JSON note list.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		level, err := cfg.Level()
		if err != nil {
			return err
		}
		log.FromContext(cmd.Context()).SetLevel(level)
		*settings(cmd.Context()) = *cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.Env+" or ~/.config/pianola/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}

// settings returns the config loaded for the running command.
func settings(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(settingsKey{}).(*config.Config); ok {
		return c
	}
	return config.DefaultConfig()
}

func newContext(ctx context.Context) context.Context {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pianola",
	})
	ctx = log.WithContext(ctx, logger)
	return context.WithValue(ctx, settingsKey{}, config.DefaultConfig())
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(newContext(ctx)))
}
