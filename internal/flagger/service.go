package flagger

import "fmt"

const (
	StatusHealthy  = "OK"
	StatusWarning  = "WARN"
	StatusCritical = "CRIT"
)

// AlertEvent is one breach found in a single evaluation pass.
type AlertEvent struct {
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Check compares the latest values against rules. A metric that has never
// been sampled counts as 0.
func Check(latest map[string]float64, rules []Rule) []AlertEvent {
	var events []AlertEvent
	for _, r := range rules {
		v := latest[r.Metric]
		if v <= r.Threshold {
			continue
		}
		events = append(events, AlertEvent{
			Type:      r.Type,
			Message:   fmt.Sprintf("%s usage is %.1f%%, exceeding threshold of %v%%", r.Label, v, r.Threshold),
			Metric:    r.Metric,
			Value:     v,
			Threshold: r.Threshold,
		})
	}
	return events
}

// Status grades value against t.
func Status(value float64, t Thresholds) string {
	if value > t.Critical {
		return StatusCritical
	}
	if value > t.Warning {
		return StatusWarning
	}
	return StatusHealthy
}
