package ioutils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxNameLength is the default length limit applied by SanitizeFileName.
const DefaultMaxNameLength = 100

var (
	invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	trailingDots     = regexp.MustCompile(`\.+$`)
)

// SanitizeFileName turns an arbitrary string into a filesystem-safe name.
//
// The following transformations are applied:
//   - Unicode is normalized to NFC so macOS and Linux agree on byte sequences
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) are removed
//   - Whitespace runs are collapsed and replaced by single hyphens
//   - Names longer than maxLength runes are cut back to the last hyphen
//   - Trailing dots are removed (Windows limitation)
//
// The result is never empty; "untitled" is returned instead.
//
// Example:
//
//	SanitizeFileName("Ep #1: A/B Test?", 10) // Returns "Ep-#1-AB"
//	SanitizeFileName("  ", 10)               // Returns "untitled"
func SanitizeFileName(name string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxNameLength
	}

	name = norm.NFC.String(name)
	name = invalidNameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(whitespaceRun.ReplaceAllString(name, " "))
	name = strings.ReplaceAll(name, " ", "-")

	if runes := []rune(name); len(runes) > maxLength {
		name = string(runes[:maxLength])
		if i := strings.LastIndex(name, "-"); i > 0 {
			name = name[:i]
		}
	}

	name = trailingDots.ReplaceAllString(name, "")
	name = strings.Trim(name, "-")

	if name == "" {
		return "untitled"
	}
	return name
}
