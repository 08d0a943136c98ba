package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvOutput    = "PODCAST_BACKUP_OUTPUT"
	EnvParallel  = "PODCAST_BACKUP_PARALLEL"
	EnvUserAgent = "PODCAST_BACKUP_USER_AGENT"
	EnvLogLevel  = "PODCAST_BACKUP_LOG_LEVEL"
	EnvBaseURL   = "PODCAST_BACKUP_BASE_URL"
)

// Settings holds all configuration options.
type Settings struct {
	// Run settings
	OutputDir          string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	Parallel           int    `json:"parallel" yaml:"parallel" toml:"parallel"`
	SkipExisting       bool   `json:"skip_existing" yaml:"skip_existing" toml:"skip_existing"`
	GenerateImportFeed bool   `json:"generate_import_feed" yaml:"generate_import_feed" toml:"generate_import_feed"`
	BaseURL            string `json:"base_url" yaml:"base_url" toml:"base_url"`

	// HTTP settings
	RequestTimeout    float64 `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	UserAgent         string  `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
	ProbeUnknownSizes bool    `json:"probe_unknown_sizes" yaml:"probe_unknown_sizes" toml:"probe_unknown_sizes"`

	// Download settings
	DownloadMaxRetries    int     `json:"download_attempts" yaml:"download_attempts" toml:"download_attempts"`
	DownloadRetryCooldown float64 `json:"download_retry_cooldown" yaml:"download_retry_cooldown" toml:"download_retry_cooldown"`
	DownloadRetryExponent float64 `json:"download_retry_exponent" yaml:"download_retry_exponent" toml:"download_retry_exponent"`
	PolitenessDelay       float64 `json:"politeness_delay" yaml:"politeness_delay" toml:"politeness_delay"`
	CompletionDelay       float64 `json:"completion_delay" yaml:"completion_delay" toml:"completion_delay"`

	// File naming and tags
	TitleMaxLength   int `json:"title_max_length" yaml:"title_max_length" toml:"title_max_length"`
	CommentMaxLength int `json:"comment_max_length" yaml:"comment_max_length" toml:"comment_max_length"`

	// Cover art settings
	CoverArtInTagsResize  bool `json:"cover_art_in_tags_resize" yaml:"cover_art_in_tags_resize" toml:"cover_art_in_tags_resize"`
	CoverArtInTagsMaxSize int  `json:"cover_art_in_tags_max_size" yaml:"cover_art_in_tags_max_size" toml:"cover_art_in_tags_max_size"`
	ConvertCoverArtToJPG  bool `json:"convert_cover_art_to_jpg" yaml:"convert_cover_art_to_jpg" toml:"convert_cover_art_to_jpg"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist" yaml:"create_playlist" toml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format" toml:"playlist_format"` // m3u, pls
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended" toml:"m3u_extended"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Parallel:           1,
		SkipExisting:       true,
		GenerateImportFeed: true,

		RequestTimeout: 30,
		UserAgent:      "podcast-backup/1.0",

		DownloadMaxRetries:    1,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
		PolitenessDelay:       0.5,
		CompletionDelay:       0.2,

		TitleMaxLength:   80,
		CommentMaxLength: 4000,

		CoverArtInTagsResize:  false,
		CoverArtInTagsMaxSize: 1400,
		ConvertCoverArtToJPG:  false,

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		LogLevel: "info",
	}
}

// Timeout returns the per-request HTTP timeout.
func (s *Settings) Timeout() time.Duration {
	return seconds(s.RequestTimeout)
}

// Politeness returns the pause after each sequential download.
func (s *Settings) Politeness() time.Duration {
	return seconds(s.PolitenessDelay)
}

// Completion returns the pause after each parallel download result.
func (s *Settings) Completion() time.Duration {
	return seconds(s.CompletionDelay)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// Load reads settings from a JSON, YAML or TOML file, chosen by extension.
//
// A missing file yields DefaultSettings. Fields absent from the file keep
// their default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, errors.WithStack(err)
	}

	settings := DefaultSettings()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, settings)
	case ".toml":
		err = toml.Unmarshal(data, settings)
	default:
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a file, encoded according to its extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	case ".toml":
		data, err = toml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.WriteFile(path, data, 0644))
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are kept.
func LoadDotEnv(paths ...string) error {
	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return errors.WithStack(godotenv.Load(present...))
}

// ApplyEnv overrides settings from PODCAST_BACKUP_* variables.
//
// lookup is usually os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutput); ok && v != "" {
		s.OutputDir = v
	}
	if v, ok := lookup(EnvParallel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return errors.Errorf("%s: invalid worker count %q", EnvParallel, v)
		}
		s.Parallel = n
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		s.UserAgent = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		s.LogLevel = v
	}
	if v, ok := lookup(EnvBaseURL); ok {
		s.BaseURL = v
	}
	return nil
}
