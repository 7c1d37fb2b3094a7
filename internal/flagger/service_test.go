package flagger

import (
	"math"
	"testing"

	"devopsmon/internal/settings"
)

func TestCheck(t *testing.T) {
	s := settings.Defaults("x") // cpu 80, memory 85, disk 90
	rules := Rules(s)

	tests := []struct {
		name     string
		latest   map[string]float64
		expected []string // messages
	}{
		{
			name:   "cpu breach",
			latest: map[string]float64{"cpu_percent": 85.3, "memory_percent": 40, "disk_percent": 50},
			expected: []string{
				"CPU usage is 85.3%, exceeding threshold of 80%",
			},
		},
		{
			name:     "equal to threshold is not a breach",
			latest:   map[string]float64{"cpu_percent": 80, "memory_percent": 85, "disk_percent": 90},
			expected: nil,
		},
		{
			name:   "all breach in rule order",
			latest: map[string]float64{"cpu_percent": 99.99, "memory_percent": 85.04, "disk_percent": 90.5},
			expected: []string{
				"CPU usage is 100.0%, exceeding threshold of 80%",
				"Memory usage is 85.0%, exceeding threshold of 85%",
				"Disk usage is 90.5%, exceeding threshold of 90%",
			},
		},
		{
			name:     "missing metrics count as zero",
			latest:   map[string]float64{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.latest, rules)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d events, want %d: %+v", len(got), len(tt.expected), got)
			}
			for i, msg := range tt.expected {
				if got[i].Message != msg {
					t.Errorf("event %d message = %q, want %q", i, got[i].Message, msg)
				}
			}
		})
	}
}

func TestCheckFractionalThreshold(t *testing.T) {
	got := Check(map[string]float64{"disk_percent": 75.26}, []Rule{
		{Type: "Disk", Label: "Disk", Metric: "disk_percent", Threshold: 75.25},
	})
	if len(got) != 1 {
		t.Fatalf("expected breach, got %+v", got)
	}
	if got[0].Message != "Disk usage is 75.3%, exceeding threshold of 75.25%" {
		t.Errorf("message = %q", got[0].Message)
	}
	if got[0].Type != "Disk" || got[0].Value != 75.26 || got[0].Threshold != 75.25 {
		t.Errorf("event = %+v", got[0])
	}
}

func TestZeroThresholdAlertsOnAnyLoad(t *testing.T) {
	got := Check(map[string]float64{"cpu_percent": 0.1}, []Rule{{Type: "CPU", Label: "CPU", Metric: "cpu_percent"}})
	if len(got) != 1 {
		t.Fatalf("expected breach, got %+v", got)
	}
}

func TestStatus(t *testing.T) {
	th := FromThreshold(80)
	tests := []struct {
		value float64
		want  string
	}{
		{10, StatusHealthy},
		{64, StatusHealthy},
		{64.1, StatusWarning},
		{80, StatusWarning},
		{80.1, StatusCritical},
		{math.NaN(), StatusHealthy},
	}
	for _, tt := range tests {
		if got := Status(tt.value, th); got != tt.want {
			t.Errorf("Status(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
