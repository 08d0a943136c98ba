package main

import (
	"fmt"
	"os"

	"github.com/handiism/podcast-backup/internal/config"
	"github.com/handiism/podcast-backup/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "podcast-backup-tui",
		Short:         "Interactive podcast backup",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			if err := settings.ApplyEnv(os.LookupEnv); err != nil {
				return err
			}
			return tui.Run(settings)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "podcast-backup.yaml", "Configuration file path (json, yaml or toml)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
