package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/bbcx/internal/matching"
	"github.com/desertthunder/bbcx/internal/tasks"
)

// Styles is the default palette.
var Styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Painter colors terminal output.
type Painter interface {
	Title(string) string
	OK(string) string
	Err(string) string
	Warn(string) string
	Help(string) string
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	box   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t)).
			Padding(0, 1),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Box draws s inside a rounded border.
func (p *Palette) Box(s string) string { return p.box.Render(s) }

// Plain is a [Painter] that leaves text unstyled.
type Plain struct{}

func (Plain) Title(s string) string { return s }
func (Plain) OK(s string) string    { return s }
func (Plain) Err(s string) string   { return s }
func (Plain) Warn(s string) string  { return s }
func (Plain) Help(s string) string  { return s }

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Outcome paints s by how the entry was resolved.
func Outcome(p Painter, o matching.Outcome, s string) string {
	switch o {
	case matching.Accepted:
		return p.OK(s)
	case matching.Rejected, matching.NotFound:
		return p.Err(s)
	default:
		return p.Warn(s)
	}
}

// Summary renders the end-of-run summary lines.
func Summary(p Painter, result *tasks.BuildResult) string {
	var b strings.Builder

	if pl := result.Playlist; pl != nil {
		b.WriteString(p.Title(pl.Name) + "\n")
		if pl.ID != "" {
			b.WriteString(fmt.Sprintf("ID: %s\n", pl.ID))
		}
		b.WriteString(p.Help(pl.Description) + "\n")
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s",
		fmt.Sprintf("Total: %d", result.Total),
		p.OK(fmt.Sprintf("Accepted: %d", result.AcceptedCount)),
		p.Err(fmt.Sprintf("Rejected: %d", result.RejectedCount)),
	))

	counts := result.Outcomes()
	var extra []string
	for _, o := range []matching.Outcome{matching.NotFound, matching.Skipped, matching.SearchFailed} {
		if counts[o] > 0 {
			extra = append(extra, fmt.Sprintf("%s: %d", o, counts[o]))
		}
	}
	if len(extra) > 0 {
		b.WriteString("\n" + p.Warn(strings.Join(extra, "  ")))
	}

	if result.DryRun {
		b.WriteString("\n" + p.Warn("Dry run: no playlist was created"))
	}
	return b.String()
}
