package play

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const textWidth = 78

var (
	accent  = lipgloss.Color("#C9A227")
	muted   = lipgloss.Color("#8A8F98")
	danger  = lipgloss.Color("#E53935")
	parchme = lipgloss.Color("#F2E8CF")
)

// Styles are bound to the presenter's writer, so output to a pipe or buffer
// carries no escape codes.
type Styles struct {
	Title     lipgloss.Style
	Narrative lipgloss.Style
	Choice    lipgloss.Style
	Key       lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Loading   lipgloss.Style
}

func NewStyles(out io.Writer) Styles {
	r := lipgloss.NewRenderer(out)
	return Styles{
		Title:     r.NewStyle().Foreground(accent).Bold(true),
		Narrative: r.NewStyle().Foreground(parchme).Width(textWidth),
		Choice:    r.NewStyle().PaddingLeft(2).Width(textWidth),
		Key:       r.NewStyle().Foreground(accent).Bold(true),
		Muted:     r.NewStyle().Foreground(muted),
		Error: r.NewStyle().
			Foreground(danger).
			Bold(true).
			Width(textWidth),
		Loading: r.NewStyle().Foreground(muted).Italic(true),
	}
}
