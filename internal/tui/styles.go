package tui

import "github.com/charmbracelet/lipgloss"

var (
	AccentColor = lipgloss.Color("#4ECDC4")
	MutedColor  = lipgloss.Color("#94A3B8")
	ErrorColor  = lipgloss.Color("#F87171")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	TableBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(MutedColor)
)

func renderMuted(text string) string {
	return StatusStyle.Render(text)
}
