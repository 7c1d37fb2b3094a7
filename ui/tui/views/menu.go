package views

import (
	"fmt"
	"math"

	"devopsmon/ui/tui/state"
	"devopsmon/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// MenuOptions are the menu entries, in page order after the menu itself.
var MenuOptions = []string{
	"Live Console View",
	"Health Dashboard",
	"CPU Telemetry & Analysis",
	"Recent Log Entries",
	"Threshold Alerts",
}

// MenuZone is the bubblezone id of option i.
func MenuZone(i int) string {
	return fmt.Sprintf("menu_%d", i)
}

const (
	menuTop    = 6 // first option row below the header
	menuRow    = 3 // rows per bordered option
	hoverReach = 5.0
)

type MenuView struct{}

func (v MenuView) Render(_ state.AppState, props ViewProps) string {
	items := make([]string, len(MenuOptions))
	for i, label := range MenuOptions {
		items[i] = zone.Mark(MenuZone(i), menuItem(i, label, props))
	}

	box := lipgloss.NewStyle().Padding(1, 0).MarginTop(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).PaddingLeft(2).Foreground(styles.Brand).Render("MONITOR VIEWS"),
		styles.NoteStyle.MarginBottom(1).Render("Stored metrics refresh every few seconds; the console and CPU views are live."),
		lipgloss.JoinVertical(lipgloss.Left, items...),
	))

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		styles.Header(props.Width, "DEVOPSMON // HOST HEALTH"),
		box,
		lipgloss.NewStyle().PaddingLeft(2).Foreground(styles.Idle).Render("[↑/↓] Navigate • [Enter] Select • [Q] Quit"),
	))
}

// menuItem draws one option. The animated cursor pushes the selected box
// out and the pointer lightens nearby borders.
func menuItem(i int, label string, props ViewProps) string {
	pull := max(0, 1-math.Abs(float64(i)-props.AnimCursor))
	selected := i == props.MenuCursor

	border := styles.Idle
	if math.Abs(float64(props.MouseY-(menuTop+i*menuRow+1))) < hoverReach {
		border = styles.Hover
	}
	if selected || pull > 0.1 {
		border = styles.Brand
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginLeft(2 + int(pull*2)).
		Width(40).
		Foreground(styles.Hover)
	if selected {
		style = style.Bold(true).Foreground(styles.Bright)
	}
	return style.Render(fmt.Sprintf("%02d. %s", i+1, label))
}
