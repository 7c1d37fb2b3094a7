package collector

import (
	"math"
	"time"
)

// MetricType is the coarse category a reading belongs to.
type MetricType string

const (
	TypeSystem      MetricType = "System"
	TypeDatabase    MetricType = "Database"
	TypeApplication MetricType = "Application"
	TypeNetwork     MetricType = "Network"
)

// MetricTypes lists every category.
var MetricTypes = []MetricType{TypeSystem, TypeDatabase, TypeApplication, TypeNetwork}

// Valid reports whether t is a known category.
func (t MetricType) Valid() bool {
	for _, known := range MetricTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Metric is one immutable reading. History is append-only; the latest value
// of a name is whichever row has the greatest timestamp.
type Metric struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      MetricType     `json:"metric_type"`
	Name      string         `json:"metric_name"`
	Value     float64        `json:"value"`
	Unit      string         `json:"unit"`
	Details   map[string]any `json:"details,omitempty"`
}

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

func toGB(b uint64) float64 {
	return round2(float64(b) / bytesPerGB)
}

func toMB(b uint64) float64 {
	return round2(float64(b) / bytesPerMB)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// batch stamps readings of a single group with one type and timestamp.
type batch struct {
	typ     MetricType
	metrics []Metric
}

func (b *batch) add(name string, value float64, unit string) {
	b.metrics = append(b.metrics, Metric{Type: b.typ, Name: name, Value: value, Unit: unit})
}

func (b *batch) addDetailed(name string, value float64, unit string, details map[string]any) {
	b.metrics = append(b.metrics, Metric{Type: b.typ, Name: name, Value: value, Unit: unit, Details: details})
}
