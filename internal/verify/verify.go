package verify

import (
	"context"
	"fmt"

	"github.com/handiism/podcast-backup/internal/archive"
	"github.com/handiism/podcast-backup/internal/audio"
	ioutils "github.com/handiism/podcast-backup/internal/io"
	"github.com/handiism/podcast-backup/internal/logging"
	"github.com/handiism/podcast-backup/internal/model"
	"github.com/spf13/afero"
)

// MaxExamples is how many file names each report category lists.
const MaxExamples = 10

// Issue is one reported file.
type Issue struct {
	File   string
	Detail string
}

// Category tallies one kind of finding.
type Category struct {
	Count    int
	Examples []Issue
}

func (c *Category) add(file, detail string) {
	c.Count++
	if len(c.Examples) < MaxExamples {
		c.Examples = append(c.Examples, Issue{File: file, Detail: detail})
	}
}

// More returns how many findings are not listed in Examples.
func (c *Category) More() int {
	return c.Count - len(c.Examples)
}

// Report is the result of verifying one archive.
type Report struct {
	Title    string
	Episodes int
	Checked  int

	MissingFiles    Category
	Unreadable      Category
	MissingMetadata Category
	Repaired        Category

	// WithoutArtwork lists files lacking an embedded cover. It is
	// informational and does not affect OK.
	WithoutArtwork Category
}

// Issues is the number of unresolved problems.
func (r *Report) Issues() int {
	return r.MissingFiles.Count + r.Unreadable.Count + r.MissingMetadata.Count
}

// OK reports whether the archive has no unresolved problems. Repaired files
// count as resolved.
func (r *Report) OK() bool {
	return r.Issues() == 0
}

// Options controls a verification pass.
type Options struct {
	// Repair re-embeds tags into files missing title or artist.
	Repair bool

	// Artwork is embedded during repair. When nil the archived cover file
	// is used, if any.
	Artwork *model.Artwork

	// OnEpisode, if set, is called before each file is checked.
	OnEpisode func(index, total int, ep *model.Episode)
}

// Verifier checks an existing archive against its manifest.
//
// Example:
//
//	v := verify.NewVerifier(afero.NewOsFs(), audio.NewTagger(nil))
//	report, err := v.Verify(ctx, "/backups/my-show", verify.Options{Repair: true})
//	if err == nil && report.OK() {
//	    fmt.Println("All files verified successfully!")
//	}
type Verifier struct {
	fs     afero.Fs
	tagger *audio.Tagger
}

// NewVerifier creates a Verifier. Audio files are always read from disk;
// fs is used for the manifest and cover.
func NewVerifier(fs afero.Fs, tagger *audio.Tagger) *Verifier {
	if tagger == nil {
		tagger = audio.NewTagger(nil)
	}
	return &Verifier{fs: fs, tagger: tagger}
}

// Verify checks every episode in dir's manifest that should have audio.
//
// It returns archive.ErrNoManifest when dir has no manifest.
func (v *Verifier) Verify(ctx context.Context, dir string, opts Options) (*Report, error) {
	layout := archive.NewLayout(dir)
	manifest, err := archive.ReadManifest(v.fs, layout.Manifest())
	if err != nil {
		return nil, err
	}

	report := &Report{
		Title:    manifest.Channel.Title,
		Episodes: len(manifest.Episodes),
	}

	artwork := opts.Artwork
	if opts.Repair && artwork.Empty() {
		artwork = v.loadCover(layout)
	}

	total := len(manifest.Episodes)
	for _, ep := range manifest.Episodes {
		if ep.EpisodeNumber > total {
			total = ep.EpisodeNumber
		}
	}

	log := logging.From(ctx)
	for i, ep := range manifest.Episodes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if ep.LocalFilename == "" || ep.AudioMissing {
			continue
		}
		if opts.OnEpisode != nil {
			opts.OnEpisode(i+1, len(manifest.Episodes), ep)
		}
		report.Checked++

		path := layout.Episode(ep.LocalFilename)
		if _, err := v.fs.Stat(path); err != nil {
			report.MissingFiles.add(ep.LocalFilename, "")
			continue
		}

		info, err := audio.Inspect(path)
		if err != nil {
			report.Unreadable.add(ep.LocalFilename, err.Error())
			continue
		}
		if !info.HasCover {
			report.WithoutArtwork.add(ep.LocalFilename, "")
		}
		if info.HasBasicTags() {
			continue
		}

		if !opts.Repair {
			report.MissingMetadata.add(ep.LocalFilename, "")
			continue
		}

		number := ep.EpisodeNumber
		if number == 0 {
			number = i + 1
			ep.EpisodeNumber = number
		}
		err = v.tagger.Full(path, audio.Input{
			Episode: ep,
			Channel: manifest.Channel,
			Total:   total,
			Artwork: artwork,
		})
		if err != nil {
			log.Debug().Err(err).Str("file", ep.LocalFilename).Msg("repair failed")
			report.MissingMetadata.add(ep.LocalFilename, fmt.Sprintf("repair failed: %v", err))
			continue
		}
		report.Repaired.add(ep.LocalFilename, "")
	}

	return report, nil
}

func (v *Verifier) loadCover(layout archive.Layout) *model.Artwork {
	path, ok := layout.FindCover(v.fs)
	if !ok {
		return nil
	}
	data, err := afero.ReadFile(v.fs, path)
	if err != nil || len(data) == 0 {
		return nil
	}
	return &model.Artwork{Data: data, MIME: ioutils.ImageMimeType(path)}
}
