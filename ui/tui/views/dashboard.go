package views

import (
	"fmt"

	"devopsmon/internal/flagger"
	"devopsmon/internal/output"
	"devopsmon/ui/tui/state"
	"devopsmon/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

type DashboardView struct{}

func (v DashboardView) Render(s state.AppState, props ViewProps) string {
	if s.Err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'b' to go back", s.Err)
	}

	title := "DevOps Monitor"
	if s.Settings.Site != "" {
		title += " · " + s.Settings.Site
	}
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		props.Spinner,
		styles.TitleStyle.Render(title),
		fmt.Sprintf(" Last Update: %s", s.LastUpdate.Format("15:04:05")),
	)

	dashboard := output.BuildDashboard(s.Latest, s.Settings)

	card := func(id, title string, extra ...string) string {
		sec := dashboard.SectionByID(id)
		if sec == nil || len(sec.Items) == 0 {
			return ""
		}
		parts := append([]string{
			lipgloss.NewStyle().Bold(true).Render(title),
			RenderSection(sec),
		}, extra...)
		return zone.Mark(id+"_box", styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		card(output.SectionCPU, "CPU Metrics", props.CPUChart),
		card(output.SectionMemory, "Memory Metrics", props.MemChart),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		card(output.SectionDisk, "Disk Metrics"),
		card(output.SectionNetwork, "Network Metrics"),
	)
	row3 := lipgloss.JoinHorizontal(lipgloss.Top,
		card(output.SectionApplication, "Application"),
		card(output.SectionDatabase, "Database"),
	)

	body := lipgloss.JoinVertical(lipgloss.Left, row1, row2, row3)
	if len(s.Latest) == 0 {
		body = lipgloss.NewStyle().Padding(1, 2).Render("No stored metrics yet. Run `devopsmon serve` to start sampling.")
	}

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		lipgloss.NewStyle().Foreground(styles.Subtle).Render("\nPress 'b' to go back • 'q' to quit"),
	))
}

func statusFor(value, threshold float64) string {
	return flagger.Status(value, flagger.FromThreshold(threshold))
}
