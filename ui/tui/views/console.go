package views

import (
	"fmt"
	"strings"

	"devopsmon/ui/tui/state"
	"devopsmon/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleView shows one line per live sample, oldest first.
type ConsoleView struct{}

func (v ConsoleView) Render(s state.AppState, props ViewProps) string {
	header := styles.Header(props.Width, "Live Console View")
	height := max(props.Height-lipgloss.Height(header)-4, 1)

	lines := s.ConsoleLogs
	if len(lines) == 0 {
		lines = []string{"Waiting for the first sample..."}
	}
	start, end := scrollWindow(len(lines), height, props.ScrollY)

	hints := []string{fmt.Sprintf("Line %d/%d", start, len(s.ConsoleLogs)), "Press 'b' to go back"}
	if len(lines) > height {
		hints = append(hints, "Use ↑/↓ to scroll")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 3).Width(max(props.Width-4, 0)).Height(height).
			Render(strings.Join(lines[start:end], "\n")),
		styles.Footer(hints...),
	)
}
