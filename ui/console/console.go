package console

import (
	"fmt"
	"io"
	"strings"

	"devopsmon/internal/flagger"
	"devopsmon/internal/logs"
	"devopsmon/internal/logtail"
	"devopsmon/internal/output"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const labelWidth = 22

// Print renders the dashboard view to the writer in a compact format.
func Print(w io.Writer, view output.DashboardView) {
	fmt.Fprintf(w, "%s■ DEVOPSMON REPORT%s", colorCyan, colorReset)
	if !view.UpdatedAt.IsZero() {
		fmt.Fprintf(w, " %s(%s)%s", colorGray, view.UpdatedAt.Format("2006-01-02 15:04:05"), colorReset)
	}
	fmt.Fprintln(w)

	for _, sec := range view.Sections {
		if len(sec.Items) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s─ %s%s\n", colorCyan, sec.Title, colorReset)

		for _, it := range sec.Items {
			label := truncate(it.Label, 20)
			val := fmt.Sprintf("%.1f%s", it.Value, it.Unit)
			if it.Unit == "" {
				val = fmt.Sprintf("%.0f", it.Value)
			}

			note := ""
			if it.Note != "" {
				note = fmt.Sprintf(" %s%s%s", colorGray, truncate(it.Note, 25), colorReset)
			}

			dots := strings.Repeat("·", labelWidth-len([]rune(label)))
			fmt.Fprintf(w, "  %s%s%s%s %10s%s%s\n", label, colorCyan, dots, colorReset, val, marker(it.Status), note)
		}
	}

	diskStr := ""
	if view.TotalDiskGB > 0 {
		diskStr = fmt.Sprintf(" | Disk: %.0fGB", view.TotalDiskGB)
	}
	fmt.Fprintf(w, "%s─ Summary%s: RAM: %.1fGB%s\n\n", colorCyan, colorReset, view.TotalMemoryGB, diskStr)
}

// PrintEntries renders classified log lines, one per row.
func PrintEntries(w io.Writer, entries []logtail.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s%-19s%s %s%-8s%s %s%s%s %s\n",
			colorGray, e.Timestamp, colorReset,
			levelColor(e.Level), e.Level, colorReset,
			colorCyan, e.Source, colorReset,
			e.Message)
	}
}

// PrintMatches renders search hits as file:line: content.
func PrintMatches(w io.Writer, matches []logs.Match) {
	for _, m := range matches {
		fmt.Fprintf(w, "%s%s:%d%s: %s\n", colorCyan, m.File, m.Line, colorReset, m.Content)
	}
	fmt.Fprintf(w, "%s%d match(es)%s\n", colorGray, len(matches), colorReset)
}

func marker(status string) string {
	switch status {
	case flagger.StatusHealthy:
		return fmt.Sprintf(" %s✓%s", colorGreen, colorReset)
	case flagger.StatusWarning:
		return fmt.Sprintf(" %s!%s", colorYellow, colorReset)
	case flagger.StatusCritical:
		return fmt.Sprintf(" %sX%s", colorRed, colorReset)
	}
	return ""
}

func colorFor(status string) string {
	switch status {
	case flagger.StatusWarning:
		return colorYellow
	case flagger.StatusCritical:
		return colorRed
	default:
		return colorGreen
	}
}

func levelColor(l logtail.Level) string {
	switch l {
	case logtail.LevelError, logtail.LevelCritical:
		return colorRed
	case logtail.LevelWarning:
		return colorYellow
	case logtail.LevelDebug:
		return colorGray
	}
	return colorGreen
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
