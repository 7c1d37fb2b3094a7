package views

import (
	"fmt"
	"strings"

	"devopsmon/internal/output"
	"devopsmon/ui/tui/state"
	"devopsmon/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// LogsView lists the most recent stored log entries, colored by level.
type LogsView struct{}

func (v LogsView) Render(s state.AppState, props ViewProps) string {
	header := styles.Header(props.Width, "Recent Log Entries")

	availableHeight := max(props.Height-lipgloss.Height(header)-4, 1)

	var lines []string
	for _, r := range s.Logs {
		level := lipgloss.NewStyle().Foreground(output.LevelColor(r.Level)).Width(9).Render(string(r.Level))
		msg := r.Message
		if w := props.Width - 48; w > 10 && len([]rune(msg)) > w {
			msg = string([]rune(msg)[:w-3]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %-14s %s", r.Timestamp, level, r.Source, msg))
	}
	if len(lines) == 0 {
		lines = []string{"No log entries stored yet."}
	}
	start, end := scrollWindow(len(lines), availableHeight, props.ScrollY)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines[start:end], "\n")),
		styles.Footer(fmt.Sprintf("%d entries", len(s.Logs)), "↑/↓ to scroll", "Press 'b' to go back"),
	)
}

// AlertsView shows the thresholds breached by the latest stored readings.
type AlertsView struct{}

func (v AlertsView) Render(s state.AppState, props ViewProps) string {
	header := styles.Header(props.Width, "Threshold Alerts")

	var body string
	if len(s.Alerts) == 0 {
		body = ColorForStatus("OK").Render("All monitored metrics are within their thresholds.")
	} else {
		var cards []string
		for _, a := range s.Alerts {
			cards = append(cards, styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
				ColorForStatus(statusFor(a.Value, a.Threshold)).Render(a.Type),
				a.Message,
			)))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 2).Render(body),
		styles.FooterStyle.Render("Press 'b' to go back"),
	)
}
