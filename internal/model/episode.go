package model

import (
	"time"
)

// Embed methods recorded in the manifest.
const (
	EmbedFull          = "full"
	EmbedSimple        = "simple"
	EmbedSimpleWithArt = "simple_with_art"
)

// Episode represents a single feed entry and its place in the archive.
//
// The first group of fields is copied from the feed by the extractor. The
// second group is computed during a run: LocalFilename, EpisodeNumber and
// DatePrefix by the planner, the failure flags and EmbedMethod by the
// backup manager.
//
// Example:
//
//	ep := &Episode{Title: "Pilot", PublishedParsed: &published}
//	plan := PlanEpisodes([]*Episode{ep}, PlanOptions{})
//	// ep.LocalFilename = "230515-Pilot.mp3"
type Episode struct {
	Title       string `json:"title"`
	GUID        string `json:"guid"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	Subtitle    string `json:"subtitle"`

	// Published is the raw date string from the feed.
	Published string `json:"published"`

	// PublishedParsed is nil when the date was missing or unparseable.
	PublishedParsed *time.Time `json:"published_parsed"`

	// Duration in seconds, nil when unknown.
	Duration *int `json:"duration"`

	EnclosureURL  string `json:"enclosure_url"`
	EnclosureType string `json:"enclosure_type"`
	EnclosureSize int64  `json:"enclosure_size"`

	ImageURL string `json:"image_url"`
	Order    string `json:"order"`
	Link     string `json:"link"`

	LocalFilename string `json:"local_filename"`
	EpisodeNumber int    `json:"episode_number"`
	DatePrefix    string `json:"date_prefix"`

	// AudioMissing marks a metadata-only entry; AudioError says why.
	AudioMissing bool   `json:"audio_missing,omitempty"`
	AudioError   string `json:"audio_error,omitempty"`

	EmbedMethod string `json:"embed_method,omitempty"`
}

// HasDate returns true if the publish date was parsed.
func (e *Episode) HasDate() bool {
	return e.PublishedParsed != nil
}

// HasEnclosure returns true if an audio URL was found in the feed.
func (e *Episode) HasEnclosure() bool {
	return e.EnclosureURL != ""
}

// Artist returns the episode author, falling back to the channel author and
// then to "Unknown".
func (e *Episode) Artist(c *Channel) string {
	if e.Author != "" {
		return e.Author
	}
	if c != nil && c.Author != "" {
		return c.Author
	}
	return "Unknown"
}

// Text returns the longest-lived description available: summary, then
// description, then content.
func (e *Episode) Text() string {
	switch {
	case e.Summary != "":
		return e.Summary
	case e.Description != "":
		return e.Description
	}
	return e.Content
}

// MarkMissing flags the episode as metadata-only.
func (e *Episode) MarkMissing(reason string) {
	e.AudioMissing = true
	e.AudioError = reason
}
