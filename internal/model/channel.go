package model

// Channel holds podcast-level metadata extracted from a feed.
//
// A Channel is built once per run by the feed extractor and is not modified
// afterwards. The JSON field names are part of the manifest format and must
// stay stable so older archives can still be verified.
type Channel struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subtitle    string `json:"subtitle"`
	Author      string `json:"author"`
	Link        string `json:"link"`

	// ImageURL is the channel artwork, preferring the iTunes image.
	ImageURL string `json:"image_url"`

	Language  string `json:"language"`
	Copyright string `json:"copyright"`

	// Category is the first iTunes category, "Podcast" when none is declared.
	Category string `json:"category"`

	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`

	// Explicit is the raw itunes:explicit value ("no" when absent).
	Explicit string `json:"explicit"`
}

// HasArtwork returns true if the channel declares cover art.
func (c *Channel) HasArtwork() bool {
	return c.ImageURL != ""
}

// Artwork is an image ready to embed into audio tags.
type Artwork struct {
	Data []byte
	MIME string
}

// Empty reports whether there are no image bytes.
func (a *Artwork) Empty() bool {
	return a == nil || len(a.Data) == 0
}
