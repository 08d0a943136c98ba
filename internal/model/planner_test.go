package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestPlanEpisodes_OrdersOldestFirst(t *testing.T) {
	eps := []*Episode{
		{Title: "Third", PublishedParsed: date(2023, 3, 1)},
		{Title: "First", PublishedParsed: date(2023, 1, 1)},
		{Title: "Undated"},
		{Title: "Second", PublishedParsed: date(2023, 2, 1)},
	}

	plan := PlanEpisodes(eps, PlanOptions{})

	require.Len(t, plan.Episodes, 4)
	assert.Equal(t, 4, plan.Total)

	var titles []string
	for _, ep := range plan.Episodes {
		titles = append(titles, ep.Title)
	}
	assert.Equal(t, []string{"First", "Second", "Third", "Undated"}, titles)

	for i, ep := range plan.Episodes {
		assert.Equal(t, i+1, ep.EpisodeNumber)
	}
}

func TestPlanEpisodes_Filenames(t *testing.T) {
	tests := []struct {
		name string
		ep   *Episode
		want string
	}{
		{"dated", &Episode{Title: "Pilot Episode", PublishedParsed: date(2023, 5, 15)}, "230515-Pilot-Episode.mp3"},
		{"undated", &Episode{Title: "Bonus"}, "000001-Bonus.mp3"},
		{"empty title", &Episode{Title: "", PublishedParsed: date(2020, 1, 2)}, "200102-untitled.mp3"},
		{"illegal chars", &Episode{Title: "Q&A: what/why?", PublishedParsed: date(2021, 12, 31)}, "211231-Q&A-whatwhy.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PlanEpisodes([]*Episode{tt.ep}, PlanOptions{})
			if tt.ep.LocalFilename != tt.want {
				t.Errorf("LocalFilename = %q, want %q", tt.ep.LocalFilename, tt.want)
			}
		})
	}
}

func TestPlanEpisodes_DatePrefixUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	published := time.Date(2023, 5, 16, 5, 0, 0, 0, loc)
	ep := &Episode{Title: "Late", PublishedParsed: &published}

	PlanEpisodes([]*Episode{ep}, PlanOptions{})

	assert.Equal(t, "230515", ep.DatePrefix)
}

func TestPlanEpisodes_TitleLength(t *testing.T) {
	ep := &Episode{Title: strings.Repeat("word ", 40), PublishedParsed: date(2023, 1, 1)}

	PlanEpisodes([]*Episode{ep}, PlanOptions{TitleMaxLength: 20})

	title := strings.TrimSuffix(strings.TrimPrefix(ep.LocalFilename, "230101-"), AudioExtension)
	assert.LessOrEqual(t, len(title), 20)
	assert.False(t, strings.HasSuffix(title, "-"))
}

func TestPlanEpisodes_DuplicateNames(t *testing.T) {
	eps := []*Episode{
		{Title: "News", PublishedParsed: date(2023, 1, 1)},
		{Title: "News", PublishedParsed: date(2023, 1, 1)},
		{Title: "News", PublishedParsed: date(2023, 1, 1)},
	}

	plan := PlanEpisodes(eps, PlanOptions{})

	assert.Equal(t, "230101-News.mp3", plan.Episodes[0].LocalFilename)
	assert.Equal(t, "230101-News-2.mp3", plan.Episodes[1].LocalFilename)
	assert.Equal(t, "230101-News-3.mp3", plan.Episodes[2].LocalFilename)
}

func TestPlanEpisodes_DuplicateNamesIgnoreCase(t *testing.T) {
	eps := []*Episode{
		{Title: "Pilot", PublishedParsed: date(2023, 5, 15)},
		{Title: "pilot", PublishedParsed: date(2023, 5, 15)},
		{Title: "PILOT", PublishedParsed: date(2023, 5, 15)},
	}

	plan := PlanEpisodes(eps, PlanOptions{})

	assert.Equal(t, "230515-Pilot.mp3", plan.Episodes[0].LocalFilename)
	assert.Equal(t, "230515-pilot-2.mp3", plan.Episodes[1].LocalFilename)
	assert.Equal(t, "230515-PILOT-3.mp3", plan.Episodes[2].LocalFilename)
}

func TestPlanEpisodes_LimitKeepsNumbers(t *testing.T) {
	eps := []*Episode{
		{Title: "B", PublishedParsed: date(2023, 2, 1)},
		{Title: "C", PublishedParsed: date(2023, 3, 1)},
		{Title: "A", PublishedParsed: date(2023, 1, 1)},
	}

	plan := PlanEpisodes(eps, PlanOptions{Limit: 2})

	require.Len(t, plan.Episodes, 2)
	assert.Equal(t, 3, plan.Total)
	assert.Equal(t, "B", plan.Episodes[0].Title)
	assert.Equal(t, 2, plan.Episodes[0].EpisodeNumber)
	assert.Equal(t, "C", plan.Episodes[1].Title)
	assert.Equal(t, 3, plan.Episodes[1].EpisodeNumber)
}

func TestPlanEpisodes_Deterministic(t *testing.T) {
	build := func() []*Episode {
		return []*Episode{
			{Title: "Two", PublishedParsed: date(2023, 2, 1)},
			{Title: "One", PublishedParsed: date(2023, 1, 1)},
			{Title: "Two", PublishedParsed: date(2023, 2, 1)},
		}
	}

	first := PlanEpisodes(build(), PlanOptions{})
	second := PlanEpisodes(build(), PlanOptions{Limit: 1})

	assert.Equal(t, first.Episodes[2].LocalFilename, second.Episodes[0].LocalFilename)
}

func TestEpisode_Artist(t *testing.T) {
	ch := &Channel{Author: "Host"}

	if got := (&Episode{Author: "Guest"}).Artist(ch); got != "Guest" {
		t.Errorf("Artist() = %q, want Guest", got)
	}
	if got := (&Episode{}).Artist(ch); got != "Host" {
		t.Errorf("Artist() = %q, want Host", got)
	}
	if got := (&Episode{}).Artist(&Channel{}); got != "Unknown" {
		t.Errorf("Artist() = %q, want Unknown", got)
	}
}
