// Package config provides configuration management for podcast-backup.
//
// This package handles:
//   - Loading and saving settings as JSON, YAML or TOML
//   - Default configuration values
//   - .env files and PODCAST_BACKUP_* environment overrides
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 30s request timeout, one attempt per download
//	// skip existing files, write the import feed
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/podcast-backup.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	_ = config.LoadDotEnv(".env")
//	err = settings.ApplyEnv(os.LookupEnv)
//
// Command-line flags are applied last and win over both.
package config
