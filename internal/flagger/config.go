package flagger

import "devopsmon/internal/settings"

// Rule breaches when the latest value of Metric is strictly greater than
// Threshold.
type Rule struct {
	Type      string
	Label     string
	Metric    string
	Threshold float64
}

// Rules builds the CPU, memory and disk rules from the current settings.
func Rules(s settings.Settings) []Rule {
	return []Rule{
		{Type: "CPU", Label: "CPU", Metric: "cpu_percent", Threshold: s.CPUThreshold},
		{Type: "Memory", Label: "Memory", Metric: "memory_percent", Threshold: s.MemoryThreshold},
		{Type: "Disk", Label: "Disk", Metric: "disk_percent", Threshold: s.DiskThreshold},
	}
}

// Thresholds defines warning and critical levels for a value.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// WarnRatio places the warning level relative to a configured threshold.
const WarnRatio = 0.8

// FromThreshold derives warning and critical levels from one alert threshold.
func FromThreshold(t float64) Thresholds {
	return Thresholds{Warning: t * WarnRatio, Critical: t}
}
