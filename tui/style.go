package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/kimaer/engine/ui"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleMenuCursor = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleMenuItem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleZone    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	stylePerfect = lipgloss.NewStyle().Foreground(lipgloss.Color("228"))
	styleMarker  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// toneStyles colours Say lines by tone.
var toneStyles = map[ui.Tone]lipgloss.Style{
	ui.ToneNormal: lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
	ui.ToneTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
	ui.ToneInfo:   lipgloss.NewStyle().Foreground(lipgloss.Color("80")),
	ui.ToneGood:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	ui.ToneBad:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	ui.ToneWarn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	ui.ToneSystem: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
}

func styleFor(tone ui.Tone) lipgloss.Style {
	if st, ok := toneStyles[tone]; ok {
		return st
	}
	return toneStyles[ui.ToneNormal]
}

// styledTrack renders a track frame cell by cell: the perfect sub-zone and
// the rest of the zone in different colours, the marker on top.
func styledTrack(f ui.Frame) string {
	plain := []rune(ui.RenderTrack(f))
	var b strings.Builder
	b.WriteRune(plain[0])
	for i, r := range plain[1 : len(plain)-1] {
		cell := string(r)
		switch {
		case i == f.Pos:
			b.WriteString(styleMarker.Render(cell))
		case i >= f.PerfectStart && i < f.PerfectEnd:
			b.WriteString(stylePerfect.Render(cell))
		case i >= f.Start && i < f.End:
			b.WriteString(styleZone.Render(cell))
		default:
			b.WriteString(cell)
		}
	}
	b.WriteRune(plain[len(plain)-1])
	return b.String()
}

// styledPlayerInput renders echoed player input in green.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render(input)
}
