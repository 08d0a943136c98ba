package download

import (
	"fmt"
	"strings"
)

var audioExtensions = []string{".mp3", ".m4a", ".aac", ".ogg", ".wav", ".flac", ".opus"}

var suspiciousPatterns = []struct {
	pattern string
	reason  string
}{
	{"media.php", "URL appears to be a PHP page, not an audio file"},
	{"pageID=", "URL appears to be a webpage with page ID"},
	{".html", "URL appears to be an HTML page"},
	{".htm", "URL appears to be an HTML page"},
	{"view=", "URL appears to be a webpage view"},
}

// IsLikelyAudioURL guesses whether url points at an audio file and returns
// the reason when it does not.
//
// The check is a heuristic. Page-like patterns reject first; a known audio
// extension anywhere in the URL accepts; a last path segment with some other
// extension rejects. Anything else is accepted, since many CDNs serve audio
// from extensionless paths.
//
// Example:
//
//	ok, reason := IsLikelyAudioURL("https://example.com/media.php?id=1")
//	// ok == false, reason mentions a PHP page
func IsLikelyAudioURL(url string) (bool, string) {
	if url == "" {
		return false, "No URL provided"
	}

	lower := strings.ToLower(url)
	hasAudioExt := false
	for _, ext := range audioExtensions {
		if strings.Contains(lower, ext) {
			hasAudioExt = true
			break
		}
	}

	for _, p := range suspiciousPatterns {
		if strings.Contains(url, p.pattern) {
			return false, p.reason
		}
	}

	segments := strings.Split(url, "/")
	if !hasAudioExt && strings.Contains(segments[len(segments)-1], ".") {
		return false, "URL doesn't appear to have an audio file extension"
	}

	return true, "OK"
}

// InvalidURLError is returned for enclosure URLs rejected by IsLikelyAudioURL.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("Invalid audio URL: %s", e.Reason)
}

// Kind returns the error class name.
func (e *InvalidURLError) Kind() string {
	return "InvalidURL"
}

// MissingEnclosureError is returned for episodes without an audio enclosure.
type MissingEnclosureError struct {
	Title string
}

func (e *MissingEnclosureError) Error() string {
	return "No audio URL found"
}

// Kind returns the error class name.
func (e *MissingEnclosureError) Kind() string {
	return "MissingEnclosure"
}
