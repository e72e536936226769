// package formatter renders build reports in various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/bbcx/internal/matching"
	"github.com/desertthunder/bbcx/internal/shared"
	"github.com/desertthunder/bbcx/internal/tasks"
)

// Format is a report output format.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{Text, Markdown, CSV, JSON}

// ParseFormat accepts a format name or common file extension ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, s)
	}
}

// Render converts a build result to the given format.
func Render(result *tasks.BuildResult, format Format) ([]byte, error) {
	switch format {
	case Text:
		return ReportToText(result)
	case Markdown:
		return ReportToMarkdown(result)
	case CSV:
		return ReportToCSV(result)
	case JSON:
		return shared.MarshalJSON(result, true)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport renders result and writes it to path.
func WriteReport(result *tasks.BuildResult, path string, format Format) error {
	data, err := Render(result, format)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReportToCSV writes one row per entry with columns: Position, Entry, Outcome, Track ID, Artist, Title, Error
func ReportToCSV(result *tasks.BuildResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Entry", "Outcome", "Track ID", "Artist", "Title", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range result.Entries {
		var id, artist, title string
		if e.Candidate != nil {
			id, artist, title = e.Candidate.ID, e.Candidate.Artist, e.Candidate.Name
		}
		record := []string{
			strconv.Itoa(e.Position),
			e.Entry,
			e.Outcome.String(),
			id,
			artist,
			title,
			e.ErrMessage(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown lists accepted tracks and the entries that were not found.
func ReportToMarkdown(result *tasks.BuildResult) ([]byte, error) {
	var buf bytes.Buffer

	if pl := result.Playlist; pl != nil {
		buf.WriteString(fmt.Sprintf("# %s\n\n", pl.Name))
		if pl.Description != "" {
			buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", pl.Description))
		}
		if pl.ID != "" {
			buf.WriteString(fmt.Sprintf("**Playlist**: %s\n", pl.ID))
		}
		buf.WriteString(fmt.Sprintf("**Visibility**: %s\n", shared.VisibilityString(pl.Public)))
	}
	if result.DryRun {
		buf.WriteString("**Dry run**: no playlist was created\n")
	}
	buf.WriteString(fmt.Sprintf("**Matched**: %d of %d\n\n", result.AcceptedCount, result.Total))

	buf.WriteString("## Tracks\n\n")
	n := 0
	for _, e := range result.Entries {
		if e.Outcome != matching.Accepted {
			continue
		}
		n++
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", n, e.Candidate.Artist, e.Candidate.Name))
	}

	if result.RejectedCount > 0 {
		buf.WriteString("\n## Not Found\n\n")
		for _, e := range result.Entries {
			if e.Outcome == matching.Accepted {
				continue
			}
			buf.WriteString(fmt.Sprintf("- %s (%s)\n", e.Entry, e.Outcome))
		}
	}

	return buf.Bytes(), nil
}

// ReportToText converts a build result to plain text format
func ReportToText(result *tasks.BuildResult) ([]byte, error) {
	var buf bytes.Buffer

	if pl := result.Playlist; pl != nil {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", pl.Name))
		if pl.ID != "" {
			buf.WriteString(fmt.Sprintf("ID: %s\n", pl.ID))
		}
		if pl.Description != "" {
			buf.WriteString(fmt.Sprintf("Description: %s\n", pl.Description))
		}
	}
	buf.WriteString(fmt.Sprintf("Total: %d  Accepted: %d  Rejected: %d\n\n", result.Total, result.AcceptedCount, result.RejectedCount))

	for _, e := range result.Entries {
		mark := "✗"
		if e.Outcome == matching.Accepted {
			mark = "✓"
		}
		line := fmt.Sprintf("%d. %s %s [%s]", e.Position, mark, e.Entry, e.Outcome)
		if e.Outcome == matching.Rejected && e.Candidate != nil {
			line += fmt.Sprintf(" top result: %s", e.Candidate)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}
