package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// BackupStats counts outcomes of a backup run.
//
// Workers update the counters concurrently, so every mutation goes through
// the mutex. Read a consistent copy with Snapshot.
type BackupStats struct {
	mu sync.Mutex
	s  StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of BackupStats.
type StatsSnapshot struct {
	Downloaded      int   `json:"downloaded"`
	SkippedExisting int   `json:"skipped_existing"`
	MetadataOnly    int   `json:"metadata_only"`
	Errors          int   `json:"errors"`
	BytesDownloaded int64 `json:"bytes_downloaded"`
}

// AddDownloaded records one downloaded episode of n bytes.
func (b *BackupStats) AddDownloaded(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Downloaded++
	b.s.BytesDownloaded += n
}

// AddSkippedExisting records an episode whose audio was already on disk.
func (b *BackupStats) AddSkippedExisting() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.SkippedExisting++
}

// AddMetadataOnly records an episode kept without audio.
func (b *BackupStats) AddMetadataOnly() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.MetadataOnly++
}

// AddError records a skipped episode.
func (b *BackupStats) AddError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Errors++
}

// Snapshot returns a copy of the current counters.
func (b *BackupStats) Snapshot() StatsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.s
}

// Summary renders the counters as indented lines for the end-of-run report.
func (b *BackupStats) Summary() string {
	s := b.Snapshot()
	lines := []string{
		fmt.Sprintf("  Downloaded:      %d episodes (%s)", s.Downloaded, humanize.IBytes(uint64(s.BytesDownloaded))),
		fmt.Sprintf("  Already existed: %d episodes", s.SkippedExisting),
		fmt.Sprintf("  Metadata only:   %d episodes", s.MetadataOnly),
		fmt.Sprintf("  Errors/skipped:  %d episodes", s.Errors),
	}
	return strings.Join(lines, "\n")
}
