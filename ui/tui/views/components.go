package views

import (
	"fmt"
	"strings"

	"devopsmon/internal/output"
	"devopsmon/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func ColorForStatus(status string) lipgloss.Style {
	return styles.StatusStyle.Foreground(output.StatusColor(status))
}

// RenderSection lists the items of a dashboard section, one per line.
func RenderSection(sec *output.Section) string {
	var b strings.Builder
	for _, item := range sec.Items {
		valStr := fmt.Sprintf("%.1f%s", item.Value, item.Unit)
		if item.Status != "" {
			valStr = ColorForStatus(item.Status).Render(fmt.Sprintf("%s [%s]", valStr, item.Status))
		}
		fmt.Fprintf(&b, "%-18s : %s\n", item.Label, valStr)
	}
	return strings.TrimRight(b.String(), "\n")
}

// scrollWindow clamps scrollY and returns the visible [start, end) range.
func scrollWindow(total, height, scrollY int) (int, int) {
	if scrollY > total-height {
		scrollY = total - height
	}
	if scrollY < 0 {
		scrollY = 0
	}
	end := scrollY + height
	if end > total {
		end = total
	}
	return scrollY, end
}
