package audio

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/handiism/podcast-backup/internal/model"
	"gitlab.com/tozd/go/errors"
)

// DefaultCommentMaxLength bounds the description stored in the COMM frame.
const DefaultCommentMaxLength = 4000

// Custom TXXX descriptions written by the full strategy.
const (
	TXXXGUID     = "GUID"
	TXXXDuration = "DURATION"
	TXXXSubtitle = "SUBTITLE"
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// Input is everything a strategy needs to tag one episode file.
type Input struct {
	Episode *model.Episode
	Channel *model.Channel

	// Total is the number of episodes in the whole feed, used for "n/total".
	Total int

	// Artwork is embedded as the front cover when not empty.
	Artwork *model.Artwork
}

// Strategy writes tags to a file and reports which method succeeded.
type Strategy interface {
	Name() string
	Embed(path string, in Input) (method string, err error)
}

// TagConfig holds tagging configuration.
type TagConfig struct {
	// CommentMaxLength truncates the description comment, in characters.
	CommentMaxLength int
}

// DefaultTagConfig returns the default tag configuration.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{CommentMaxLength: DefaultCommentMaxLength}
}

// Attempt is one failed strategy inside an EmbedError.
type Attempt struct {
	Strategy string
	Err      error
}

// EmbedError is returned when every strategy failed.
type EmbedError struct {
	Attempts []Attempt
}

func (e *EmbedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s method: %v", a.Strategy, a.Err))
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying strategy errors.
func (e *EmbedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Kind returns the error class name.
func (e *EmbedError) Kind() string {
	return "MetadataError"
}

// Tagger writes ID3 tags to episode files.
//
// Tagger tries an ordered list of strategies and stops at the first one that
// succeeds:
//  1. FullStrategy: every frame including comment, TXXX and cover art
//  2. SimpleStrategy: basic frames only, then a separate cover art pass
//
// A failing strategy may leave partial changes in the file; nothing is
// rolled back.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	method, err := tagger.Embed(path, audio.Input{
//	    Episode: ep, Channel: ch, Total: 120, Artwork: art,
//	})
//	// method is "full", "simple" or "simple_with_art"
type Tagger struct {
	strategies []Strategy
}

// NewTagger creates a Tagger using the full and then the simple strategy.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return NewTaggerWithStrategies(&FullStrategy{CommentMaxLength: config.CommentMaxLength}, &SimpleStrategy{})
}

// NewTaggerWithStrategies creates a Tagger with an explicit strategy order.
func NewTaggerWithStrategies(strategies ...Strategy) *Tagger {
	return &Tagger{strategies: strategies}
}

// Embed runs the strategies in order and returns the method of the first
// that succeeds. When all fail the result is an *EmbedError.
func (t *Tagger) Embed(path string, in Input) (string, error) {
	failure := &EmbedError{}
	for _, s := range t.strategies {
		method, err := s.Embed(path, in)
		if err == nil {
			return method, nil
		}
		failure.Attempts = append(failure.Attempts, Attempt{Strategy: s.Name(), Err: err})
	}
	return "", errors.WithStack(failure)
}

// Full writes every frame using only the full strategy. Used by repair.
func (t *Tagger) Full(path string, in Input) error {
	for _, s := range t.strategies {
		if s.Name() == model.EmbedFull {
			_, err := s.Embed(path, in)
			return err
		}
	}
	return errors.New("no full strategy configured")
}

// FullStrategy writes an ID3v2.4 UTF-8 tag with all podcast frames.
//
// The file must contain a decodable MPEG frame; otherwise ErrNoMPEGSync is
// returned before anything is written. A missing tag is created.
type FullStrategy struct {
	CommentMaxLength int
}

// Name implements Strategy.
func (s *FullStrategy) Name() string {
	return model.EmbedFull
}

// Embed implements Strategy.
func (s *FullStrategy) Embed(path string, in Input) (string, error) {
	if _, err := ProbeMPEG(path); err != nil {
		return "", err
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", errors.Errorf("opening tag: %w", err)
	}
	defer tag.Close()

	enc := id3v2.EncodingUTF8
	tag.SetVersion(4)
	tag.SetDefaultEncoding(enc)

	setBasicFrames(tag, in, enc)
	if pub := in.Episode.PublishedParsed; pub != nil {
		tag.AddTextFrame("TDRC", enc, pub.UTC().Format("2006-01-02"))
	}

	tag.DeleteFrames("COMM")
	if text := CleanDescription(in.Episode.Text(), s.CommentMaxLength); text != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    enc,
			Language:    "eng",
			Description: "Description",
			Text:        text,
		})
	}

	custom := map[string]string{TXXXGUID: in.Episode.GUID, TXXXSubtitle: in.Episode.Subtitle}
	if d := in.Episode.Duration; d != nil && *d > 0 {
		custom[TXXXDuration] = fmt.Sprint(*d)
	}
	replaceUserFrames(tag, enc, custom)

	if !in.Artwork.Empty() {
		setCover(tag, enc, in.Artwork)
	}

	if err := tag.Save(); err != nil {
		return "", errors.Errorf("saving tag: %w", err)
	}
	return model.EmbedFull, nil
}

// SimpleStrategy writes a fresh ID3v2.3 tag with basic frames.
//
// Existing frames are discarded, which lets it succeed on files whose tag
// could not be parsed. Cover art is attempted afterwards in a separate pass
// and reported through the method name.
type SimpleStrategy struct{}

// Name implements Strategy.
func (s *SimpleStrategy) Name() string {
	return model.EmbedSimple
}

// Embed implements Strategy.
func (s *SimpleStrategy) Embed(path string, in Input) (string, error) {
	hasTag, probeErr := ProbeMPEG(path)
	if probeErr != nil && !hasTag {
		return "", errors.Errorf("cannot read audio file: %w", probeErr)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		return "", errors.Errorf("opening tag: %w", err)
	}

	enc := id3v2.EncodingUTF16
	tag.SetVersion(3)
	tag.SetDefaultEncoding(enc)
	setBasicFrames(tag, in, enc)

	err = tag.Save()
	tag.Close()
	if err != nil {
		return "", errors.Errorf("saving tag: %w", err)
	}

	if !in.Artwork.Empty() && embedCover(path, in.Artwork) == nil {
		return model.EmbedSimpleWithArt, nil
	}
	return model.EmbedSimple, nil
}

// setBasicFrames writes title, artist, album, genre, track and year.
func setBasicFrames(tag *id3v2.Tag, in Input, enc id3v2.Encoding) {
	ep, ch := in.Episode, in.Channel
	if ch == nil {
		ch = &model.Channel{}
	}

	tag.AddTextFrame("TIT2", enc, firstNonEmpty(ep.Title, "Unknown"))
	tag.AddTextFrame("TPE1", enc, ep.Artist(ch))
	tag.AddTextFrame("TALB", enc, firstNonEmpty(ch.Title, "Unknown Podcast"))
	tag.AddTextFrame("TCON", enc, firstNonEmpty(ch.Category, "Podcast"))
	tag.AddTextFrame("TRCK", enc, fmt.Sprintf("%d/%d", ep.EpisodeNumber, in.Total))
	if pub := ep.PublishedParsed; pub != nil {
		tag.AddTextFrame("TYER", enc, pub.UTC().Format("2006"))
	}
}

// replaceUserFrames swaps our TXXX frames and keeps any others.
func replaceUserFrames(tag *id3v2.Tag, enc id3v2.Encoding, values map[string]string) {
	var keep []id3v2.UserDefinedTextFrame
	for _, f := range tag.GetFrames("TXXX") {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		if _, ours := values[udtf.Description]; !ours {
			keep = append(keep, udtf)
		}
	}

	tag.DeleteFrames("TXXX")
	for _, f := range keep {
		tag.AddUserDefinedTextFrame(f)
	}
	for _, desc := range []string{TXXXGUID, TXXXDuration, TXXXSubtitle} {
		if v := values[desc]; v != "" {
			tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
				Encoding:    enc,
				Description: desc,
				Value:       v,
			})
		}
	}
}

func setCover(tag *id3v2.Tag, enc id3v2.Encoding, art *model.Artwork) {
	tag.DeleteFrames("APIC")
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    enc,
		MimeType:    firstNonEmpty(art.MIME, "image/jpeg"),
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     art.Data,
	})
}

// embedCover adds cover art to whatever tag the file already has.
func embedCover(path string, art *model.Artwork) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return errors.WithStack(err)
	}
	defer tag.Close()

	setCover(tag, tag.DefaultEncoding(), art)
	return errors.WithStack(tag.Save())
}

// CleanDescription strips HTML markup, unescapes entities and truncates to
// maxLen characters. A non-positive maxLen uses DefaultCommentMaxLength.
func CleanDescription(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultCommentMaxLength
	}
	s = html.UnescapeString(htmlTag.ReplaceAllString(s, ""))
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
