package settings

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFound is returned when no settings exist for a site. Callers treat it
// as "monitoring disabled".
var ErrNotFound = errors.New("settings not found")

// Recipient is one user on the alert list.
type Recipient struct {
	User          string `json:"user"`
	NotifyOnAlert bool   `json:"notify_on_alert"`
}

// Settings is the per-site monitor configuration edited by the operator.
type Settings struct {
	Site string `json:"site"`

	EnableMonitoring  bool   `json:"enable_monitoring"`
	FrappeLogPath     string `json:"frappe_log_path"`
	NginxLogPath      string `json:"nginx_log_path"`
	SupervisorLogPath string `json:"supervisor_log_path"`
	SystemLogPath     string `json:"system_log_path"`
	MaxLogLines       int    `json:"max_log_lines"`
	LogRetentionDays  int    `json:"log_retention_days"`

	EnableAlerts       bool    `json:"enable_alerts"`
	CPUThreshold       float64 `json:"cpu_threshold"`
	MemoryThreshold    float64 `json:"memory_threshold"`
	DiskThreshold      float64 `json:"disk_threshold"`
	ErrorRateThreshold float64 `json:"error_rate_threshold"`
	// SlowQueryThreshold is in milliseconds.
	SlowQueryThreshold int `json:"slow_query_threshold"`

	Recipients []Recipient `json:"alert_recipients"`
}

// Defaults returns the settings a fresh install starts with.
func Defaults(site string) Settings {
	return Settings{
		Site:               site,
		EnableMonitoring:   true,
		FrappeLogPath:      "~/frappe-bench/logs",
		NginxLogPath:       "/var/log/nginx",
		SupervisorLogPath:  "/var/log/supervisor",
		SystemLogPath:      "/var/log",
		MaxLogLines:        1000,
		LogRetentionDays:   30,
		EnableAlerts:       true,
		CPUThreshold:       80,
		MemoryThreshold:    85,
		DiskThreshold:      90,
		ErrorRateThreshold: 10,
		SlowQueryThreshold: 1000,
	}
}

// Validate rejects out of range values. It returns a *ValidationError
// naming the first offending field.
func (s Settings) Validate() error {
	percents := []struct {
		field string
		label string
		value float64
	}{
		{"cpu_threshold", "CPU Threshold", s.CPUThreshold},
		{"memory_threshold", "Memory Threshold", s.MemoryThreshold},
		{"disk_threshold", "Disk Threshold", s.DiskThreshold},
		{"error_rate_threshold", "Error Rate Threshold", s.ErrorRateThreshold},
	}
	for _, p := range percents {
		if math.IsNaN(p.value) || p.value < 0 || p.value > 100 {
			return &ValidationError{Field: p.field, Message: p.label + " must be between 0 and 100"}
		}
	}
	if s.Site == "" {
		return &ValidationError{Field: "site", Message: "site must not be empty"}
	}
	if s.MaxLogLines < 1 {
		return &ValidationError{Field: "max_log_lines", Message: "must be at least 1"}
	}
	if s.LogRetentionDays < 1 {
		return &ValidationError{Field: "log_retention_days", Message: "must be at least 1"}
	}
	if s.SlowQueryThreshold < 0 {
		return &ValidationError{Field: "slow_query_threshold", Message: "must not be negative"}
	}
	for i, r := range s.Recipients {
		if r.User == "" {
			return &ValidationError{Field: fmt.Sprintf("alert_recipients[%d].user", i), Message: "must not be empty"}
		}
	}
	return nil
}

// AlertUsers returns the recipients that want alert notifications.
func (s Settings) AlertUsers() []string {
	var users []string
	for _, r := range s.Recipients {
		if r.NotifyOnAlert {
			users = append(users, r.User)
		}
	}
	return users
}

// ValidationError reports a rejected settings write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + e.Field + " " + e.Message
}
