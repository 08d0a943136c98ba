// Package http provides the HTTP client used to fetch feeds, audio and artwork.
//
// The Client in this package handles:
//   - User-Agent headers (some podcast CDNs reject anonymous clients)
//   - A fixed timeout applied to every request
//   - Streaming GETs for large enclosures
//   - File size retrieval via HEAD requests
//
// Non-200 responses are reported as *StatusError.
//
// # Basic Usage
//
//	client := http.NewClient(30*time.Second, "podcast-backup/1.0")
//
//	// Fetch the feed document
//	xml, err := client.Get(ctx, "https://example.com/feed.xml")
//
//	// Stream an episode body
//	body, size, err := client.Open(ctx, mp3URL)
package http
