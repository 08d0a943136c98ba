package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"settings.json", `{"parallel": 4, "user_agent": "ua-test"}`},
		{"settings.yaml", "parallel: 4\nuser_agent: ua-test\n"},
		{"settings.yml", "parallel: 4\nuser_agent: ua-test\n"},
		{"settings.toml", "parallel = 4\nuser_agent = \"ua-test\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			s, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 4, s.Parallel)
			assert.Equal(t, "ua-test", s.UserAgent)
			// Untouched fields keep defaults.
			assert.Equal(t, 80, s.TitleMaxLength)
			assert.True(t, s.SkipExisting)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "settings"+ext)
			s := DefaultSettings()
			s.BaseURL = "https://files.example.com/show"
			s.CompletionDelay = 0.75

			require.NoError(t, s.Save(path))
			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, s, loaded)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvOutput:    "/tmp/out",
		EnvParallel:  "3",
		EnvUserAgent: "agent",
		EnvLogLevel:  "debug",
		EnvBaseURL:   "https://example.com",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s := DefaultSettings()
	require.NoError(t, s.ApplyEnv(lookup))

	assert.Equal(t, "/tmp/out", s.OutputDir)
	assert.Equal(t, 3, s.Parallel)
	assert.Equal(t, "agent", s.UserAgent)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "https://example.com", s.BaseURL)
}

func TestApplyEnv_InvalidParallel(t *testing.T) {
	s := DefaultSettings()
	err := s.ApplyEnv(func(k string) (string, bool) {
		if k == EnvParallel {
			return "zero", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PODCAST_BACKUP_TEST_VAR=hello\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("PODCAST_BACKUP_TEST_VAR") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "hello", os.Getenv("PODCAST_BACKUP_TEST_VAR"))
}

func TestDurations(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 30*time.Second, s.Timeout())
	assert.Equal(t, 500*time.Millisecond, s.Politeness())
	assert.Equal(t, 200*time.Millisecond, s.Completion())
}
