package archive

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	ioutils "github.com/handiism/podcast-backup/internal/io"
	"github.com/handiism/podcast-backup/internal/model"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Tool and Version are recorded in every manifest.
const (
	Tool    = "podcast-backup"
	Version = "1.0.0"
)

// ErrNoManifest is returned when an archive has no manifest.json.
var ErrNoManifest = errors.Base("no manifest.json found")

// Manifest is the durable record of one backup run.
type Manifest struct {
	BackupDate string           `json:"backup_date"`
	Tool       string           `json:"tool"`
	Version    string           `json:"version"`
	Channel    *model.Channel   `json:"channel"`
	Episodes   []*model.Episode `json:"episodes"`
}

// NewManifest builds a manifest dated now, with episodes ordered by number.
func NewManifest(channel *model.Channel, episodes []*model.Episode, now time.Time) *Manifest {
	sorted := make([]*model.Episode, len(episodes))
	copy(sorted, episodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EpisodeNumber < sorted[j].EpisodeNumber
	})

	return &Manifest{
		BackupDate: now.Format(time.RFC3339),
		Tool:       Tool,
		Version:    Version,
		Channel:    channel,
		Episodes:   sorted,
	}
}

// WriteManifest atomically replaces path with the indented JSON encoding of m.
func WriteManifest(w *ioutils.AtomicWriter, path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	return w.WriteFile(path, append(data, '\n'))
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithStack(ErrNoManifest)
		}
		return nil, errors.WithStack(err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}
	if m.Channel == nil {
		m.Channel = &model.Channel{}
	}
	return &m, nil
}
