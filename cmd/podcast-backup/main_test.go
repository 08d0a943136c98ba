package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/podcast-backup/internal/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	audioData := bytes.Repeat(frame, 20)

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>CLI Show</title>
<link>https://example.com</link>
<description>A show</description>
<item><title>First</title><guid>1</guid><pubDate>Mon, 01 May 2023 10:00:00 +0000</pubDate><enclosure url="%[1]s/1.mp3" length="8340" type="audio/mpeg"/></item>
<item><title>Second</title><guid>2</guid><pubDate>Mon, 08 May 2023 10:00:00 +0000</pubDate><enclosure url="%[1]s/2.mp3" length="8340" type="audio/mpeg"/></item>
</channel></rss>`, srv.URL)
	})
	mux.HandleFunc("/1.mp3", func(w http.ResponseWriter, r *http.Request) { w.Write(audioData) })
	mux.HandleFunc("/2.mp3", func(w http.ResponseWriter, r *http.Request) { w.Write(audioData) })

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	data := "politeness_delay: 0\ncompletion_delay: 0\ndownload_retry_cooldown: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestBackupThenVerify(t *testing.T) {
	srv := newFeedServer(t)
	base := t.TempDir()
	cfg := writeTestConfig(t, base)
	out := filepath.Join(base, "show")

	stdout, err := runCLI(t, srv.URL+"/feed.xml", "--config", cfg, "--output", out, "--non-interactive")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Podcast: CLI Show")
	assert.Contains(t, stdout, "Downloaded")
	assert.Contains(t, stdout, "Backup saved to: "+out)

	for _, name := range []string{archive.ManifestFile, archive.ImportFeedFile, archive.OriginalFeedFile} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	stdout, err = runCLI(t, "verify", out, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "All files verified successfully!")

	entries, err := os.ReadDir(filepath.Join(out, archive.EpisodesDir))
	require.NoError(t, err)
	var removed bool
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".mp3") {
			require.NoError(t, os.Remove(filepath.Join(out, archive.EpisodesDir, e.Name())))
			removed = true
			break
		}
	}
	require.True(t, removed)

	stdout, err = runCLI(t, "verify", out, "--config", cfg)
	assert.True(t, errors.Is(err, errVerifyFailed))
	assert.Contains(t, stdout, "Missing files")
	assert.Contains(t, stdout, "Found 1 issue(s).")
}

func TestBackupLimit(t *testing.T) {
	srv := newFeedServer(t)
	base := t.TempDir()
	out := filepath.Join(base, "show")

	_, err := runCLI(t, srv.URL+"/feed.xml", "--config", writeTestConfig(t, base), "-o", out, "-n", "1", "--no-import-feed")
	require.NoError(t, err)

	manifest, err := os.ReadFile(filepath.Join(out, archive.ManifestFile))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "Second")
	assert.NotContains(t, string(manifest), `"title": "First"`)

	_, err = os.Stat(filepath.Join(out, archive.ImportFeedFile))
	assert.True(t, os.IsNotExist(err))
}

func TestVerifyWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "verify", dir, "--config", writeTestConfig(t, dir))
	require.Error(t, err)
	assert.True(t, errors.Is(err, archive.ErrNoManifest))
	assert.Contains(t, err.Error(), "is not a podcast backup")
}

func TestFlagsAreMutuallyExclusive(t *testing.T) {
	_, err := runCLI(t, "https://example.com/feed.xml", "--interactive", "--non-interactive")
	assert.Error(t, err)
}

func TestNoArgsShowsHelp(t *testing.T) {
	stdout, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "podcast-backup FEED_URL")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer episode name", 10, "a much ..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
