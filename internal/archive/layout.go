package archive

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// File and directory names inside an archive.
const (
	ManifestFile     = "manifest.json"
	ImportFeedFile   = "import_feed.xml"
	OriginalFeedFile = "original_feed.xml"
	EpisodesDir      = "episodes"
	LockFile         = ".podcast-backup.lock"
	CoverBaseName    = "cover"
	PlaylistBaseName = "playlist"
)

// Layout resolves paths inside one archive directory.
//
//	<root>/
//	  original_feed.xml
//	  manifest.json
//	  import_feed.xml
//	  cover.jpg | cover.png
//	  episodes/<prefix>-<title>.mp3
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{Root: dir}
}

func (l Layout) Manifest() string { return filepath.Join(l.Root, ManifestFile) }
func (l Layout) ImportFeed() string { return filepath.Join(l.Root, ImportFeedFile) }
func (l Layout) OriginalFeed() string { return filepath.Join(l.Root, OriginalFeedFile) }
func (l Layout) Episodes() string { return filepath.Join(l.Root, EpisodesDir) }
func (l Layout) Lock() string { return filepath.Join(l.Root, LockFile) }

// Episode returns the path of an episode's audio file.
func (l Layout) Episode(filename string) string {
	return filepath.Join(l.Root, EpisodesDir, filename)
}

// Cover returns the channel artwork path for the given extension (".jpg").
func (l Layout) Cover(ext string) string {
	return filepath.Join(l.Root, CoverBaseName+ext)
}

// Playlist returns the playlist path for the given extension (".m3u").
func (l Layout) Playlist(ext string) string {
	return filepath.Join(l.Root, EpisodesDir, PlaylistBaseName+ext)
}

// FindCover returns the persisted channel artwork, preferring cover.jpg
// over cover.png.
func (l Layout) FindCover(fs afero.Fs) (string, bool) {
	for _, ext := range []string{".jpg", ".png"} {
		p := l.Cover(ext)
		if _, err := fs.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
