package archive

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	ioutils "github.com/handiism/podcast-backup/internal/io"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// SweepTemps removes temp files left under root by interrupted writes and
// returns the removed paths relative to root.
func SweepTemps(fs afero.Fs, root string) ([]string, error) {
	if _, err := fs.Stat(root); err != nil {
		return nil, nil
	}

	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, root)), "**/*"+ioutils.TempSuffix)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var removed []string
	for _, m := range matches {
		if err := fs.Remove(filepath.Join(root, filepath.FromSlash(m))); err != nil {
			return removed, errors.Errorf("removing %s: %w", m, err)
		}
		removed = append(removed, m)
	}
	return removed, nil
}
