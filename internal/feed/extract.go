package feed

import (
	"strconv"
	"strings"

	"github.com/handiism/podcast-backup/internal/model"
)

// Defaults applied when a feed omits a field.
const (
	DefaultChannelTitle = "Unknown Podcast"
	DefaultEpisodeTitle = "Untitled"
	DefaultCategory     = "Podcast"
	DefaultLanguage     = "en"
	DefaultExplicit     = "no"
)

// Extract converts a parsed document into typed records.
//
// Extraction never fails: missing fields fall back to the defaults above or
// to empty values. Episodes are returned in document order; use
// model.PlanEpisodes to order and name them.
func Extract(doc *Document) (*model.Channel, []*model.Episode) {
	channel := ExtractChannel(&doc.Channel)
	episodes := make([]*model.Episode, 0, len(doc.Entries))
	for i := range doc.Entries {
		episodes = append(episodes, ExtractEpisode(&doc.Entries[i]))
	}
	return channel, episodes
}

// ExtractChannel builds the channel record.
//
// The iTunes image wins over the generic channel image. Category is the first
// iTunes category, then the first plain category, then "Podcast".
func ExtractChannel(c *ChannelData) *model.Channel {
	ch := &model.Channel{
		Title:       firstNonEmpty(c.Title, DefaultChannelTitle),
		Description: c.Description,
		Subtitle:    c.Subtitle,
		Author:      c.Author,
		Link:        c.Link,
		ImageURL:    c.Image,
		Language:    firstNonEmpty(c.Language, DefaultLanguage),
		Copyright:   c.Rights,
		Category:    DefaultCategory,
		Explicit:    DefaultExplicit,
	}
	if len(c.Categories) > 0 {
		ch.Category = c.Categories[0]
	}

	if it := c.ITunes; it != nil {
		ch.Author = firstNonEmpty(it.Author, ch.Author)
		ch.ImageURL = firstNonEmpty(it.Image, ch.ImageURL)
		ch.Subtitle = firstNonEmpty(it.Subtitle, ch.Subtitle)
		ch.Explicit = firstNonEmpty(it.Explicit, ch.Explicit)
		for _, cat := range it.Categories {
			if cat != nil && cat.Text != "" {
				ch.Category = cat.Text
				break
			}
		}
		if it.Owner != nil {
			ch.OwnerName = it.Owner.Name
			ch.OwnerEmail = it.Owner.Email
		}
	}
	return ch
}

// ExtractEpisode builds one episode record.
//
// The audio enclosure is looked up in Links first (relation "enclosure" or an
// audio MIME type) and then in Enclosures (audio MIME type only). A match in
// Enclosures replaces one found in Links.
func ExtractEpisode(e *EntryData) *model.Episode {
	ep := &model.Episode{
		Title:           firstNonEmpty(e.Title, DefaultEpisodeTitle),
		GUID:            e.ID,
		Description:     e.Description,
		Summary:         e.Summary,
		Content:         e.Content,
		Author:          e.Author,
		Published:       e.Published,
		PublishedParsed: e.PublishedParsed,
		Link:            e.Link,
	}

	for _, l := range e.Links {
		if l.Rel == "enclosure" || strings.Contains(l.Type, "audio") {
			ep.EnclosureURL, ep.EnclosureType, ep.EnclosureSize = l.Href, l.Type, l.Length
			break
		}
	}
	for _, l := range e.Enclosures {
		if strings.Contains(l.Type, "audio") {
			ep.EnclosureURL, ep.EnclosureType, ep.EnclosureSize = l.Href, l.Type, l.Length
			break
		}
	}

	if it := e.ITunes; it != nil {
		ep.Author = firstNonEmpty(it.Author, ep.Author)
		ep.Subtitle = it.Subtitle
		ep.ImageURL = it.Image
		ep.Order = it.Order
		if d, ok := ParseDuration(it.Duration); ok {
			ep.Duration = &d
		}
	}
	return ep
}

// ParseDuration converts a feed duration into seconds.
//
// Accepted shapes:
//   - an integer, returned as-is
//   - a string of digits ("90")
//   - "H:MM:SS" ("01:02:03" is 3723)
//   - "MM:SS" ("02:03" is 123)
//
// Anything else reports ok=false.
func ParseDuration(v any) (seconds int, ok bool) {
	switch d := v.(type) {
	case nil:
		return 0, false
	case int:
		return d, true
	case int64:
		return int(d), true
	case string:
		return parseDurationString(d)
	default:
		return 0, false
	}
}

func parseDurationString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if isDigits(s) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
