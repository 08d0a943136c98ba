package feed

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
	"gitlab.com/tozd/go/errors"
)

// ErrUnsupportedFormat is returned for documents that are neither RSS nor Atom.
var ErrUnsupportedFormat = errors.Base("unsupported feed format")

// Link is one link-like element of an entry: an atom:link, or an RSS
// enclosure presented as a link with relation "enclosure".
type Link struct {
	Rel    string
	Href   string
	Type   string
	Length int64
}

// ChannelData is the channel-level part of a parsed document.
type ChannelData struct {
	Title       string
	Description string
	Subtitle    string
	Link        string
	Language    string
	Rights      string
	Author      string
	Image       string
	Categories  []string
	ITunes      *ext.ITunesFeedExtension
}

// EntryData is one parsed item or entry.
type EntryData struct {
	Title           string
	ID              string
	Description     string
	Summary         string
	Content         string
	Author          string
	Link            string
	Published       string
	PublishedParsed *time.Time

	// Links holds every link-like element in document order.
	Links []Link

	// Enclosures holds only RSS enclosure elements.
	Enclosures []Link

	ITunes *ext.ITunesItemExtension
}

// Document is a feed decoded from either RSS or Atom into one shape.
type Document struct {
	Type    gofeed.FeedType
	Channel ChannelData
	Entries []EntryData

	// Malformed is the strict parse error when the document only decoded
	// after being cut back to its last complete item or entry.
	Malformed error
}

// Parse decodes an RSS or Atom document.
//
// The format is sniffed with gofeed.DetectFeedType and then decoded with the
// format-specific parser, which keeps link relations and enclosure types that
// the universal gofeed.Feed flattens away. A document that fails to decode
// is cut after its last complete item or entry and decoded again; the result
// then carries the original error in Malformed. An error is returned only
// when that salvage yields no entries.
//
// Example:
//
//	doc, err := feed.Parse(xmlBytes)
//	if err != nil {
//	    return err
//	}
//	channel, episodes := feed.Extract(doc)
func Parse(data []byte) (*Document, error) {
	feedType := gofeed.DetectFeedType(bytes.NewReader(data))
	if feedType != gofeed.FeedTypeRSS && feedType != gofeed.FeedTypeAtom {
		return nil, errors.WithStack(ErrUnsupportedFormat)
	}

	doc, err := decode(feedType, data)
	if err == nil {
		return doc, nil
	}

	salvaged, ok := truncateToLastEntry(feedType, data)
	if !ok {
		return nil, err
	}
	doc, rerr := decode(feedType, salvaged)
	if rerr != nil || len(doc.Entries) == 0 {
		return nil, err
	}
	doc.Malformed = err
	return doc, nil
}

func decode(feedType gofeed.FeedType, data []byte) (*Document, error) {
	if feedType == gofeed.FeedTypeAtom {
		f, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Errorf("parsing Atom: %w", err)
		}
		return fromAtom(f), nil
	}
	f, err := (&rss.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Errorf("parsing RSS: %w", err)
	}
	return fromRSS(f), nil
}

// truncateToLastEntry cuts data after the last closing item or entry tag and
// closes the elements that enclose it. RSS 1.0 items are children of
// rdf:RDF, RSS 2.0 items of channel.
func truncateToLastEntry(feedType gofeed.FeedType, data []byte) ([]byte, bool) {
	closeTag, tail := "</item>", "</channel></rss>"
	switch {
	case feedType == gofeed.FeedTypeAtom:
		closeTag, tail = "</entry>", "</feed>"
	case bytes.Contains(data, []byte("<rdf:RDF")):
		tail = "</rdf:RDF>"
	}

	i := bytes.LastIndex(data, []byte(closeTag))
	if i < 0 {
		return nil, false
	}
	end := i + len(closeTag)
	out := make([]byte, 0, end+len(tail))
	out = append(out, data[:end]...)
	out = append(out, tail...)
	return out, true
}

func fromRSS(f *rss.Feed) *Document {
	doc := &Document{
		Type: gofeed.FeedTypeRSS,
		Channel: ChannelData{
			Title:       f.Title,
			Description: f.Description,
			Link:        f.Link,
			Language:    f.Language,
			Rights:      f.Copyright,
			Author:      f.ManagingEditor,
			ITunes:      f.ITunesExt,
		},
	}
	if f.Image != nil {
		doc.Channel.Image = f.Image.URL
	}
	for _, c := range f.Categories {
		if c != nil && c.Value != "" {
			doc.Channel.Categories = append(doc.Channel.Categories, c.Value)
		}
	}
	if f.ITunesExt != nil {
		doc.Channel.Subtitle = f.ITunesExt.Subtitle
	}
	if doc.Channel.Author == "" && f.DublinCoreExt != nil && len(f.DublinCoreExt.Creator) > 0 {
		doc.Channel.Author = f.DublinCoreExt.Creator[0]
	}

	for _, item := range f.Items {
		if item == nil {
			continue
		}
		e := EntryData{
			Title:           item.Title,
			Description:     item.Description,
			Summary:         item.Description,
			Content:         item.Content,
			Author:          item.Author,
			Link:            item.Link,
			Published:       item.PubDate,
			PublishedParsed: item.PubDateParsed,
			ITunes:          item.ITunesExt,
			Links:           atomLinks(item.Extensions),
		}
		if item.GUID != nil {
			e.ID = item.GUID.Value
		}
		if e.Author == "" && item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
			e.Author = item.DublinCoreExt.Creator[0]
		}
		if item.ITunesExt != nil && item.ITunesExt.Summary != "" {
			e.Summary = item.ITunesExt.Summary
		}

		encs := item.Enclosures
		if len(encs) == 0 && item.Enclosure != nil {
			encs = []*rss.Enclosure{item.Enclosure}
		}
		for _, enc := range encs {
			if enc == nil {
				continue
			}
			l := Link{Rel: "enclosure", Href: enc.URL, Type: enc.Type, Length: parseLength(enc.Length)}
			e.Links = append(e.Links, l)
			e.Enclosures = append(e.Enclosures, l)
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc
}

func fromAtom(f *atom.Feed) *Document {
	doc := &Document{
		Type: gofeed.FeedTypeAtom,
		Channel: ChannelData{
			Title:       f.Title,
			Description: f.Subtitle,
			Subtitle:    f.Subtitle,
			Language:    f.Language,
			Rights:      f.Rights,
			Image:       f.Logo,
		},
	}
	if doc.Channel.Image == "" {
		doc.Channel.Image = f.Icon
	}
	if len(f.Authors) > 0 && f.Authors[0] != nil {
		doc.Channel.Author = f.Authors[0].Name
	}
	doc.Channel.Link = alternateLink(f.Links)
	for _, c := range f.Categories {
		if c == nil {
			continue
		}
		if c.Label != "" {
			doc.Channel.Categories = append(doc.Channel.Categories, c.Label)
		} else if c.Term != "" {
			doc.Channel.Categories = append(doc.Channel.Categories, c.Term)
		}
	}
	if itunes, ok := f.Extensions["itunes"]; ok {
		doc.Channel.ITunes = ext.NewITunesFeedExtension(itunes)
		if doc.Channel.Subtitle == "" {
			doc.Channel.Subtitle = doc.Channel.ITunes.Subtitle
		}
	}

	for _, entry := range f.Entries {
		if entry == nil {
			continue
		}
		e := EntryData{
			Title:           entry.Title,
			ID:              entry.ID,
			Description:     entry.Summary,
			Summary:         entry.Summary,
			Link:            alternateLink(entry.Links),
			Published:       entry.Published,
			PublishedParsed: entry.PublishedParsed,
		}
		if e.PublishedParsed == nil {
			e.Published = entry.Updated
			e.PublishedParsed = entry.UpdatedParsed
		}
		if entry.Content != nil {
			e.Content = entry.Content.Value
		}
		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			e.Author = entry.Authors[0].Name
		}
		for _, l := range entry.Links {
			if l == nil {
				continue
			}
			link := Link{Rel: l.Rel, Href: l.Href, Type: l.Type, Length: parseLength(l.Length)}
			e.Links = append(e.Links, link)
			if l.Rel == "enclosure" {
				e.Enclosures = append(e.Enclosures, link)
			}
		}
		if itunes, ok := entry.Extensions["itunes"]; ok {
			e.ITunes = ext.NewITunesItemExtension(itunes)
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc
}

// atomLinks collects atom:link elements embedded in an RSS item.
func atomLinks(exts ext.Extensions) []Link {
	var links []Link
	for _, x := range exts["atom"]["link"] {
		links = append(links, Link{
			Rel:    x.Attrs["rel"],
			Href:   x.Attrs["href"],
			Type:   x.Attrs["type"],
			Length: parseLength(x.Attrs["length"]),
		})
	}
	return links
}

func alternateLink(links []*atom.Link) string {
	for _, l := range links {
		if l != nil && (l.Rel == "" || l.Rel == "alternate") {
			return l.Href
		}
	}
	return ""
}

func parseLength(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
