package model

import (
	"fmt"
	"sort"
	"strings"

	ioutils "github.com/handiism/podcast-backup/internal/io"
)

// DefaultTitleMaxLength bounds the title part of episode filenames.
const DefaultTitleMaxLength = 80

// AudioExtension is the extension given to every archived episode.
const AudioExtension = ".mp3"

// PlanOptions controls filename and numbering assignment.
type PlanOptions struct {
	// Limit keeps only the n most recent episodes. Zero keeps all.
	Limit int

	// TitleMaxLength bounds the sanitized title. Zero means DefaultTitleMaxLength.
	TitleMaxLength int
}

// Plan is the result of ordering a feed's episodes.
type Plan struct {
	// Episodes are the episodes to process, oldest first.
	Episodes []*Episode

	// Total is the number of episodes in the whole feed, before Limit.
	Total int
}

// PlanEpisodes orders episodes oldest first and assigns their local names.
//
// Episodes without a parsed date sort after all dated ones, keeping feed
// order among themselves. Each episode gets:
//   - EpisodeNumber: its 1-based rank in the full ordering
//   - DatePrefix: YYMMDD in UTC, or the zero-padded rank when undated
//   - LocalFilename: "<prefix>-<title>.mp3", with "-2", "-3"... appended
//     to repeats of the same prefix and title
//
// Numbers and names are computed before Limit is applied, so a limited run
// resolves to the same paths as a full one.
//
// Example:
//
//	plan := PlanEpisodes(episodes, PlanOptions{Limit: 2})
//	// plan.Episodes holds the two newest, numbered 2 and 3 of 3
func PlanEpisodes(episodes []*Episode, opts PlanOptions) *Plan {
	maxLen := opts.TitleMaxLength
	if maxLen <= 0 {
		maxLen = DefaultTitleMaxLength
	}

	ordered := make([]*Episode, len(episodes))
	copy(ordered, episodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].PublishedParsed, ordered[j].PublishedParsed
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})

	used := make(map[string]bool, len(ordered))
	for i, ep := range ordered {
		ep.EpisodeNumber = i + 1
		if ep.HasDate() {
			ep.DatePrefix = ep.PublishedParsed.UTC().Format("060102")
		} else {
			ep.DatePrefix = fmt.Sprintf("%06d", ep.EpisodeNumber)
		}

		base := ep.DatePrefix + "-" + ioutils.SanitizeFileName(ep.Title, maxLen)
		name := base
		// Case-insensitive filesystems treat "Pilot" and "pilot" as one file.
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[strings.ToLower(name)] = true
		ep.LocalFilename = name + AudioExtension
	}

	plan := &Plan{Episodes: ordered, Total: len(ordered)}
	if opts.Limit > 0 && opts.Limit < len(ordered) {
		plan.Episodes = ordered[len(ordered)-opts.Limit:]
	}
	return plan
}
