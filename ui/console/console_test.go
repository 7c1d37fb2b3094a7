package console

import (
	"bytes"
	"strings"
	"testing"

	"devopsmon/internal/logs"
	"devopsmon/internal/logtail"
	"devopsmon/internal/output"
)

func TestColorFor(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"WARN", colorYellow},
		{"CRIT", colorRed},
		{"OK", colorGreen},
		{"", colorGreen},
		{"UNKNOWN", colorGreen},
	}

	for _, tt := range tests {
		result := colorFor(tt.status)
		if result != tt.expected {
			t.Errorf("colorFor(%q) = %q; want %q", tt.status, result, tt.expected)
		}
	}
}

func TestPrint(t *testing.T) {
	view := output.DashboardView{
		Sections: []output.Section{
			{
				Title: "CPU",
				Items: []output.Item{
					{Label: "Healthy", Value: 10, Unit: "%", Status: "OK"},
					{Label: "Warning", Value: 80, Unit: "%", Status: "WARN"},
					{Label: "Critical", Value: 95, Unit: "%", Status: "CRIT"},
					{Label: "A label that is far too long to fit", Value: 50, Unit: "GB"},
					{Label: "With Note", Value: 4, Note: "postgres"},
				},
			},
			{Title: "Empty"},
		},
		TotalMemoryGB: 16,
	}

	var buf bytes.Buffer
	Print(&buf, view)
	out := buf.String()

	for _, want := range []string{"DEVOPSMON REPORT", "─ CPU", "95.0%", "A label that is f...", "postgres", "RAM: 16.0GB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Empty") {
		t.Error("empty sections should be skipped")
	}
}

func TestPrintEntriesAndMatches(t *testing.T) {
	var buf bytes.Buffer
	PrintEntries(&buf, []logtail.Entry{{Timestamp: "2024-01-15 10:00:00", Level: logtail.LevelError, Source: "web.log", Message: "boom"}})
	PrintMatches(&buf, []logs.Match{{File: "error.log", Line: 7, Content: "Gateway Timeout"}})

	out := buf.String()
	for _, want := range []string{"boom", "web.log", "ERROR", "error.log:7", "Gateway Timeout", "1 match(es)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("truncate = %q", got)
	}
}
