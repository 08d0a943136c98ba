package audio

import (
	"fmt"
	"strings"

	"github.com/handiism/podcast-backup/internal/model"
)

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible).
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS
)

// ParsePlaylistFormat maps a settings value ("m3u", "pls") to a format.
func ParsePlaylistFormat(s string) (PlaylistFormat, bool) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "m3u", "":
		return FormatM3U, true
	case "pls":
		return FormatPLS, true
	}
	return FormatM3U, false
}

// Extension returns the file extension for the format, including the dot.
func (f PlaylistFormat) Extension() string {
	if f == FormatPLS {
		return ".pls"
	}
	return ".m3u"
}

// PlaylistCreator generates playlists over archived episodes.
//
// Entries are the episodes' local filenames, so the playlist must live in
// the episodes directory. Metadata-only episodes are left out.
//
// Example:
//
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(channel, episodes)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:1834,Host - Pilot
//	// 230515-Pilot.mp3
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// extended only affects M3U output.
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// CreatePlaylist renders the playlist for the given episodes.
func (p *PlaylistCreator) CreatePlaylist(channel *model.Channel, episodes []*model.Episode) string {
	var entries []*model.Episode
	for _, ep := range episodes {
		if ep.LocalFilename != "" && !ep.AudioMissing {
			entries = append(entries, ep)
		}
	}

	if p.format == FormatPLS {
		return p.createPLS(entries)
	}
	return p.createM3U(channel, entries)
}

func (p *PlaylistCreator) createM3U(channel *model.Channel, episodes []*model.Episode) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, ep := range episodes {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s - %s\n", durationOrUnknown(ep), ep.Artist(channel), ep.Title)
		}
		sb.WriteString(ep.LocalFilename + "\n")
	}

	return sb.String()
}

func (p *PlaylistCreator) createPLS(episodes []*model.Episode) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, ep := range episodes {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, ep.LocalFilename)
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, ep.Title)
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, durationOrUnknown(ep))
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(episodes))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// durationOrUnknown returns -1 for unknown lengths, as both formats expect.
func durationOrUnknown(ep *model.Episode) int {
	if ep.Duration == nil {
		return -1
	}
	return *ep.Duration
}
