package archive

import (
	"bytes"
	"strings"

	"github.com/eduncan911/podcast"
	ioutils "github.com/handiism/podcast-backup/internal/io"
	"github.com/handiism/podcast-backup/internal/model"
	"gitlab.com/tozd/go/errors"
)

// ImportOptions controls the enclosure URLs written to the import feed.
type ImportOptions struct {
	// BaseURL, if set, is where the episode files are served from. Enclosures
	// become BaseURL + "/" + filename. Otherwise they are relative paths
	// under episodes/.
	BaseURL string

	// CoverName is the archived channel artwork file name, e.g. "cover.jpg".
	CoverName string
}

// BuildImportFeed renders an RSS 2.0 document with iTunes tags whose
// enclosures point at the archived files.
func BuildImportFeed(channel *model.Channel, episodes []*model.Episode, opts ImportOptions) ([]byte, error) {
	p := podcast.New(channel.Title, channel.Link, firstNonEmpty(channel.Description, channel.Title), nil, nil)
	p.Language = channel.Language
	p.Copyright = channel.Copyright
	p.IExplicit = channel.Explicit
	p.AddSubTitle(channel.Subtitle)
	if channel.Category != "" {
		p.AddCategory(channel.Category, nil)
	}
	if channel.OwnerEmail != "" {
		p.AddAuthor(channel.OwnerName, channel.OwnerEmail)
		p.IOwner = &podcast.Author{Name: channel.OwnerName, Email: channel.OwnerEmail}
	}
	p.IAuthor = channel.Author
	if channel.HasArtwork() && opts.CoverName != "" {
		p.AddImage(opts.CoverName)
	}

	for _, ep := range episodes {
		if ep.LocalFilename == "" {
			continue
		}

		item := podcast.Item{
			Title:       ep.Title,
			GUID:        ep.GUID,
			Link:        ep.Link,
			Description: firstNonEmpty(ep.Description, ep.Text(), ep.Title),
			IAuthor:     ep.Author,
			ISubtitle:   ep.Subtitle,
			IOrder:      ep.Order,
		}
		if ep.PublishedParsed != nil {
			item.AddPubDate(ep.PublishedParsed)
		}
		if ep.Duration != nil {
			item.AddDuration(int64(*ep.Duration))
		}
		item.AddEnclosure(enclosureURL(ep.LocalFilename, opts.BaseURL), enclosureType(ep.EnclosureType), ep.EnclosureSize)

		if _, err := p.AddItem(item); err != nil {
			return nil, errors.Errorf("adding %q: %w", ep.Title, err)
		}
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// WriteImportFeed renders the import feed and writes it atomically to path.
func WriteImportFeed(w *ioutils.AtomicWriter, path string, channel *model.Channel, episodes []*model.Episode, opts ImportOptions) error {
	data, err := BuildImportFeed(channel, episodes, opts)
	if err != nil {
		return err
	}
	return w.WriteFile(path, data)
}

func enclosureURL(filename, baseURL string) string {
	if baseURL == "" {
		return EpisodesDir + "/" + filename
	}
	return strings.TrimRight(baseURL, "/") + "/" + filename
}

func enclosureType(mime string) podcast.EnclosureType {
	m := strings.ToLower(mime)
	switch {
	case strings.Contains(m, "m4a"), strings.Contains(m, "mp4"), strings.Contains(m, "aac"):
		return podcast.M4A
	default:
		return podcast.MP3
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
