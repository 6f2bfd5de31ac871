// Package report renders test progress and results on a terminal.
package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Status glyphs used by the summary.
const (
	GlyphPassed  = "✓"
	GlyphFailed  = "✗"
	GlyphSkipped = "⏭"
	GlyphError   = "!"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

type styles struct {
	passed  lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
	errored lipgloss.Style
	header  lipgloss.Style
	context lipgloss.Style
	removed lipgloss.Style
	added   lipgloss.Style
	plain   bool
}

// newStyles binds the palette to a renderer for out so colour support is
// detected from the real destination.
func newStyles(out io.Writer, noColor bool) styles {
	if noColor {
		return styles{plain: true}
	}
	r := lipgloss.NewRenderer(out)
	return styles{
		passed:  r.NewStyle().Foreground(colorGreen),
		failed:  r.NewStyle().Bold(true).Foreground(colorRed),
		skipped: r.NewStyle().Faint(true),
		errored: r.NewStyle().Bold(true).Foreground(colorYellow),
		header:  r.NewStyle().Bold(true).Foreground(colorCyan),
		context: r.NewStyle().Foreground(colorDim),
		removed: r.NewStyle().Foreground(colorRed),
		added:   r.NewStyle().Foreground(colorGreen),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return st.Render(text)
}
