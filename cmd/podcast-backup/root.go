package main

import (
	"os"

	"github.com/handiism/podcast-backup/internal/config"
	"github.com/handiism/podcast-backup/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// commandContext carries the persistent flags shared by every command.
type commandContext struct {
	configPath string
	envFile    string
	logLevel   string

	settings *config.Settings
}

// loadSettings resolves settings in order: defaults, config file, .env and
// environment, then flags (applied by each command).
func (c *commandContext) loadSettings() (*config.Settings, error) {
	if c.settings != nil {
		return c.settings, nil
	}

	path := c.configPath
	if path == "" {
		path = "podcast-backup.yaml"
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := config.LoadDotEnv(c.envFile); err != nil {
		return nil, err
	}
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		settings.LogLevel = c.logLevel
	}

	c.settings = settings
	return settings, nil
}

// logger attaches a diagnostics logger writing to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command, settings *config.Settings) zerolog.Logger {
	w := cmd.ErrOrStderr()
	return logging.New(w, settings.LogLevel, isTerminal(w))
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := newBackupCommand(ctx)
	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path (json, yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&ctx.envFile, "env-file", ".env", "Dotenv file with PODCAST_BACKUP_* overrides")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Diagnostics log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVerifyCommand(ctx))

	return rootCmd
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
