package cmd

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var saveConfig bool

func init() {
	configCmd.Flags().BoolVar(&saveConfig, "save", false, "write the effective config to the config file")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings(cmd.Context())
		if saveConfig {
			if err := cfg.Save(configPath); err != nil {
				return err
			}
			log.FromContext(cmd.Context()).Info("saved", "config", configPath)
		}
		e := json.NewEncoder(cmd.OutOrStdout())
		e.SetIndent("", "  ")
		return e.Encode(cfg)
	},
}
