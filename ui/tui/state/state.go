package state

import (
	"time"

	"devopsmon/internal/collector"
	"devopsmon/internal/database/relational"
	"devopsmon/internal/flagger"
	"devopsmon/internal/settings"
)

type Page int

const (
	PageMenu Page = iota
	PageDashboard
	PageConsole
	PageCPU
	PageLogs
	PageAlerts
)

// AppState holds the latest data shown by every page.
type AppState struct {
	Snapshot    collector.Snapshot
	Latest      map[collector.MetricType][]collector.Metric
	Settings    settings.Settings
	Logs        []relational.LogRecord
	Alerts      []flagger.AlertEvent
	LastUpdate  time.Time
	Err         error
	CPUHistory  []float64
	MemHistory  []float64
	ConsoleLogs []string
	CurrentPage Page
}
