package styles

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Brand     = lipgloss.Color("#f27b24")
	Idle      = lipgloss.Color("#444")
	Hover     = lipgloss.Color("#aaa")
	Muted     = lipgloss.Color("#888")
	Bright    = lipgloss.Color("#FFF")
	Subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	Highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Bright).
			Background(Brand).
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Margin(0, 4, 0, 1).
			Padding(0, 1).
			Italic(true).
			Foreground(lipgloss.Color("#FFF7DB"))

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Padding(1, 2).
			Margin(1, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Padding(1, 2)

	StatusStyle = lipgloss.NewStyle().Bold(true)

	NoteStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true).
			PaddingLeft(2)

	FooterStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Foreground(Subtle)
)

// Header renders a full-width page title bar.
func Header(width int, title string) string {
	return HeaderStyle.Width(width).Render(title)
}

// Footer joins key hints into the page footer.
func Footer(hints ...string) string {
	out := ""
	for i, h := range hints {
		if i > 0 {
			out += " • "
		}
		out += h
	}
	return FooterStyle.Render(out)
}
