package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/handiism/podcast-backup/internal/download"
	"github.com/handiism/podcast-backup/internal/verify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const separator = "----------------------------------------"

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// progressPrinter writes progress events as prefixed lines.
func progressPrinter(w io.Writer, verbose bool) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !verbose {
			return
		}

		var prefix string
		switch event.Level {
		case download.LevelError:
			prefix = "[error] "
		case download.LevelWarning:
			prefix = "[warn]  "
		case download.LevelSuccess:
			prefix = "[ok]    "
		case download.LevelInfo:
			prefix = ""
		default:
			prefix = "        "
		}

		fmt.Fprintln(w, prefix+event.Message)
	}
}

func renderStats(result *download.Result) string {
	s := result.Stats
	rows := [][]string{
		{"Downloaded", fmt.Sprint(s.Downloaded), humanize.IBytes(uint64(s.BytesDownloaded))},
		{"Already existed", fmt.Sprint(s.SkippedExisting), ""},
		{"Metadata only", fmt.Sprint(s.MetadataOnly), ""},
		{"Errors/skipped", fmt.Sprint(s.Errors), ""},
	}
	return renderTable([]string{"Outcome", "Episodes", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
}

func renderReport(report *verify.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Podcast: %s\n", report.Title)
	fmt.Fprintf(&b, "Episodes in manifest: %d, files checked: %d\n\n", report.Episodes, report.Checked)

	categories := []struct {
		name string
		cat  verify.Category
	}{
		{"Missing files", report.MissingFiles},
		{"Unreadable", report.Unreadable},
		{"Missing metadata", report.MissingMetadata},
		{"Repaired", report.Repaired},
		{"Without artwork", report.WithoutArtwork},
	}

	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.name, fmt.Sprint(c.cat.Count)})
	}
	b.WriteString(renderTable([]string{"Check", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteString("\n")

	for _, c := range categories {
		if c.cat.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", c.name)
		for _, issue := range c.cat.Examples {
			if issue.Detail != "" {
				fmt.Fprintf(&b, "  - %s (%s)\n", issue.File, issue.Detail)
			} else {
				fmt.Fprintf(&b, "  - %s\n", issue.File)
			}
		}
		if more := c.cat.More(); more > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", more)
		}
	}

	b.WriteString("\n")
	if report.OK() {
		b.WriteString("All files verified successfully!\n")
	} else {
		fmt.Fprintf(&b, "Found %d issue(s).\n", report.Issues())
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
