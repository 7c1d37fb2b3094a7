package views

import (
	"fmt"
	"strings"

	"devopsmon/internal/output"
	"devopsmon/ui/tui/state"
	"devopsmon/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type CPUView struct{}

func (v CPUView) Render(s state.AppState, props ViewProps) string {
	header := styles.Header(props.Width, "CPU Telemetry & Analysis")

	cpu := s.Snapshot.CPU
	if cpu == nil {
		msg := "CPU counters unavailable"
		if e, ok := s.Snapshot.Errors["cpu"]; ok {
			msg += ": " + e
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Padding(1, 2).Render(msg),
			styles.FooterStyle.Render("Press 'b' to go back"),
		)
	}

	freq := "n/a"
	if cpu.FrequencyMHz > 0 {
		freq = fmt.Sprintf("%.0f MHz", cpu.FrequencyMHz)
	}
	info := lipgloss.NewStyle().
		Padding(1, 2).
		Render(fmt.Sprintf("Model: %s\nCores: %d  Frequency: %s\nLoad: %.2f, %.2f, %.2f",
			cpu.Model, cpu.Cores, freq, cpu.Load1, cpu.Load5, cpu.Load15))

	chart := styles.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Usage History"),
		props.CPUChart,
	))

	threshold := s.Settings.CPUThreshold
	var cores []string
	for i, usage := range cpu.PerCore {
		cores = append(cores, fmt.Sprintf("Core %2d: [%s] %5.1f%%", i, usageBar(usage, threshold, 20), usage))
	}

	const coresPerCol = 8
	var cols []string
	for i := 0; i < len(cores); i += coresPerCol {
		end := min(i+coresPerCol, len(cores))
		col := lipgloss.JoinVertical(lipgloss.Left, cores[i:end]...)
		if i > 0 {
			col = lipgloss.NewStyle().PaddingLeft(4).Render(col)
		}
		cols = append(cols, col)
	}

	coreBox := styles.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Per-Core Utilization"),
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		info,
		lipgloss.JoinHorizontal(lipgloss.Top, chart, coreBox),
		styles.FooterStyle.Render("Press 'b' to go back"),
	)
}

// usageBar colors a percentage bar by the configured threshold. A zero
// threshold falls back to plain green.
func usageBar(usage, threshold float64, width int) string {
	filled := int(float64(width) * usage / 100)
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	status := ""
	if threshold > 0 {
		status = statusFor(usage, threshold)
	}
	return lipgloss.NewStyle().Foreground(output.StatusColor(status)).Render(bar)
}
