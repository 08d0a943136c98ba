package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Test Show</title>
    <link>https://example.com</link>
    <description>A show about tests</description>
    <language>de</language>
    <copyright>2023 Example</copyright>
    <image><url>https://example.com/generic.jpg</url><title>Test Show</title><link>https://example.com</link></image>
    <itunes:author>Show Host</itunes:author>
    <itunes:subtitle>Testing things</itunes:subtitle>
    <itunes:image href="https://example.com/itunes.png"/>
    <itunes:category text="Technology"><itunes:category text="Software"/></itunes:category>
    <itunes:owner><itunes:name>Owner Name</itunes:name><itunes:email>owner@example.com</itunes:email></itunes:owner>
    <itunes:explicit>yes</itunes:explicit>
    <item>
      <title>Episode One</title>
      <guid>ep-1</guid>
      <description>&lt;p&gt;First episode&lt;/p&gt;</description>
      <pubDate>Mon, 15 May 2023 10:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/ep1.mp3" length="1234" type="audio/mpeg"/>
      <itunes:duration>01:02:03</itunes:duration>
      <itunes:author>Guest</itunes:author>
      <itunes:image href="https://example.com/ep1.jpg"/>
      <itunes:subtitle>The first</itunes:subtitle>
      <itunes:order>1</itunes:order>
    </item>
    <item>
      <title></title>
      <enclosure url="https://cdn.example.com/cover.jpg" length="10" type="image/jpeg"/>
      <enclosure url="https://cdn.example.com/ep2.m4a" length="99" type="audio/x-m4a"/>
      <itunes:duration>not-a-time</itunes:duration>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Show</title>
  <subtitle>Atom subtitle</subtitle>
  <link href="https://atom.example.com/"/>
  <author><name>Atom Author</name></author>
  <id>urn:show</id>
  <updated>2023-06-01T00:00:00Z</updated>
  <entry>
    <title>Atom Episode</title>
    <id>urn:ep:1</id>
    <published>2023-06-01T00:00:00Z</published>
    <updated>2023-06-01T00:00:00Z</updated>
    <summary>Summary text</summary>
    <link rel="alternate" href="https://atom.example.com/ep1"/>
    <link rel="enclosure" type="audio/mpeg" length="555" href="https://atom.example.com/ep1.mp3"/>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	doc, err := Parse([]byte(rssFeed))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	ch, eps := Extract(doc)

	assert.Equal(t, "Test Show", ch.Title)
	assert.Equal(t, "Show Host", ch.Author)
	assert.Equal(t, "https://example.com/itunes.png", ch.ImageURL)
	assert.Equal(t, "Technology", ch.Category)
	assert.Equal(t, "Owner Name", ch.OwnerName)
	assert.Equal(t, "owner@example.com", ch.OwnerEmail)
	assert.Equal(t, "de", ch.Language)
	assert.Equal(t, "2023 Example", ch.Copyright)
	assert.Equal(t, "yes", ch.Explicit)
	assert.Equal(t, "Testing things", ch.Subtitle)

	first := eps[0]
	assert.Equal(t, "Episode One", first.Title)
	assert.Equal(t, "ep-1", first.GUID)
	assert.Equal(t, "Guest", first.Author)
	assert.Equal(t, "https://cdn.example.com/ep1.mp3", first.EnclosureURL)
	assert.Equal(t, "audio/mpeg", first.EnclosureType)
	assert.EqualValues(t, 1234, first.EnclosureSize)
	assert.Equal(t, "https://example.com/ep1.jpg", first.ImageURL)
	assert.Equal(t, "The first", first.Subtitle)
	assert.Equal(t, "1", first.Order)
	require.NotNil(t, first.Duration)
	assert.Equal(t, 3723, *first.Duration)
	require.NotNil(t, first.PublishedParsed)
	assert.Equal(t, 2023, first.PublishedParsed.Year())

	second := eps[1]
	assert.Equal(t, DefaultEpisodeTitle, second.Title)
	assert.Equal(t, "https://cdn.example.com/ep2.m4a", second.EnclosureURL)
	assert.Nil(t, second.Duration)
	assert.Nil(t, second.PublishedParsed)
}

func TestParse_Atom(t *testing.T) {
	doc, err := Parse([]byte(atomFeed))
	require.NoError(t, err)

	ch, eps := Extract(doc)

	assert.Equal(t, "Atom Show", ch.Title)
	assert.Equal(t, "Atom Author", ch.Author)
	assert.Equal(t, DefaultCategory, ch.Category)
	assert.Equal(t, DefaultLanguage, ch.Language)
	assert.Equal(t, DefaultExplicit, ch.Explicit)

	require.Len(t, eps, 1)
	assert.Equal(t, "urn:ep:1", eps[0].GUID)
	assert.Equal(t, "https://atom.example.com/ep1.mp3", eps[0].EnclosureURL)
	assert.EqualValues(t, 555, eps[0].EnclosureSize)
	assert.Equal(t, "https://atom.example.com/ep1", eps[0].Link)
	assert.Equal(t, "Summary text", eps[0].Summary)
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse([]byte("this is not a feed"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`<rss version="2.0"><channel><title>x</title><item><title>broken`))
	assert.Error(t, err)
}

func TestParse_TruncatedKeepsCompleteItems(t *testing.T) {
	data := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Cut Short</title>
<item><title>One</title><guid>1</guid><enclosure url="https://example.com/1.mp3" length="10" type="audio/mpeg"/></item>
<item><title>Two</title><guid>2</guid><enclosure url="https://example.com/2.mp3" length="10" type="audio/mpeg"/></item>
<item><title>Thr`

	doc, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Error(t, doc.Malformed)
	assert.Equal(t, "Cut Short", doc.Channel.Title)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "One", doc.Entries[0].Title)
	assert.Equal(t, "Two", doc.Entries[1].Title)
}

func TestParse_TruncatedAtomKeepsCompleteEntries(t *testing.T) {
	data := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Atom Cut</title>
<entry><title>First</title><id>a1</id><link rel="enclosure" href="https://example.com/a1.mp3" type="audio/mpeg" length="5"/></entry>
<entry><title>Sec`

	doc, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Error(t, doc.Malformed)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "First", doc.Entries[0].Title)
}

func TestParse_RDFTruncatedKeepsCompleteItems(t *testing.T) {
	data := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/">
<channel rdf:about="https://example.com"><title>RDF Show</title></channel>
<item rdf:about="https://example.com/1"><title>Only</title><link>https://example.com/1</link></item>
<item rdf:about="https://example.com/2"><title>Bro`

	doc, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Only", doc.Entries[0].Title)
}

func TestParse_WellFormedIsNotMarkedMalformed(t *testing.T) {
	doc, err := Parse([]byte(rssFeed))
	require.NoError(t, err)
	assert.NoError(t, doc.Malformed)
}

func TestExtractEpisode_EnclosureLookup(t *testing.T) {
	tests := []struct {
		name  string
		entry EntryData
		want  string
	}{
		{
			name:  "link with enclosure relation",
			entry: EntryData{Links: []Link{{Rel: "alternate", Href: "page"}, {Rel: "enclosure", Href: "a.mp3"}}},
			want:  "a.mp3",
		},
		{
			name:  "link with audio type",
			entry: EntryData{Links: []Link{{Href: "b.ogg", Type: "audio/ogg"}}},
			want:  "b.ogg",
		},
		{
			name: "enclosure list overrides links",
			entry: EntryData{
				Links:      []Link{{Rel: "enclosure", Href: "video.mp4", Type: "video/mp4"}},
				Enclosures: []Link{{Href: "video.mp4", Type: "video/mp4"}, {Href: "c.mp3", Type: "audio/mpeg"}},
			},
			want: "c.mp3",
		},
		{
			name:  "no audio anywhere",
			entry: EntryData{Links: []Link{{Rel: "alternate", Href: "page", Type: "text/html"}}},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := ExtractEpisode(&tt.entry)
			if ep.EnclosureURL != tt.want {
				t.Errorf("EnclosureURL = %q, want %q", ep.EnclosureURL, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input  any
		want   int
		wantOK bool
	}{
		{"01:02:03", 3723, true},
		{"02:03", 123, true},
		{"90", 90, true},
		{" 45 ", 45, true},
		{90, 90, true},
		{int64(7), 7, true},
		{"not-a-time", 0, false},
		{"1:2:3:4", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{1.5, 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseDuration(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseDuration(%#v) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
