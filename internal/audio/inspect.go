package audio

import (
	"github.com/bogem/id3v2"
	"gitlab.com/tozd/go/errors"
)

// Info summarises the tags found in an audio file.
type Info struct {
	Title     string
	Artist    string
	HasTitle  bool
	HasArtist bool
	HasCover  bool
}

// HasBasicTags reports whether both title and artist frames are present.
func (i *Info) HasBasicTags() bool {
	return i.HasTitle && i.HasArtist
}

// Inspect opens path as MPEG audio and reads its ID3 tag.
//
// An error means the file is not readable as audio. A file without a tag is
// readable and reports no frames.
func Inspect(path string) (*Info, error) {
	if _, err := ProbeMPEG(path); err != nil {
		return nil, err
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, errors.Errorf("reading tag: %w", err)
	}
	defer tag.Close()

	return &Info{
		Title:     tag.Title(),
		Artist:    tag.Artist(),
		HasTitle:  len(tag.GetFrames("TIT2")) > 0,
		HasArtist: len(tag.GetFrames("TPE1")) > 0,
		HasCover:  len(tag.GetFrames("APIC")) > 0,
	}, nil
}
