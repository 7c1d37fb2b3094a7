package collector

import "time"

// SamplerConfig contains tunables for host sampling.
// Use DefaultSamplerConfig() to get sensible defaults, then override as needed.
type SamplerConfig struct {
	CPUInterval  time.Duration // Blocking window for the CPU utilization reading (default: 1s)
	GroupTimeout time.Duration // Upper bound for a single sampling group (default: 25s)

	DiskPath string // Volume reported as the primary disk (default: "/")

	TopProcesses   int      // Number of processes ranked by memory (default: 5)
	ProcessMarkers []string // Command line markers of the monitored application (default: frappe, gunicorn)
}

// DefaultSamplerConfig returns a SamplerConfig with sensible defaults.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		CPUInterval:    1 * time.Second,
		GroupTimeout:   25 * time.Second,
		DiskPath:       "/",
		TopProcesses:   5,
		ProcessMarkers: []string{"frappe", "gunicorn"},
	}
}

// WithCPUInterval returns a copy of the config with modified CPU sampling window.
func (c SamplerConfig) WithCPUInterval(d time.Duration) SamplerConfig {
	c.CPUInterval = d
	return c
}

// WithGroupTimeout returns a copy of the config with modified per-group timeout.
func (c SamplerConfig) WithGroupTimeout(d time.Duration) SamplerConfig {
	c.GroupTimeout = d
	return c
}

// WithDiskPath returns a copy of the config reporting a different volume.
func (c SamplerConfig) WithDiskPath(path string) SamplerConfig {
	c.DiskPath = path
	return c
}

// WithTopProcesses returns a copy of the config with modified top process count.
func (c SamplerConfig) WithTopProcesses(n int) SamplerConfig {
	c.TopProcesses = n
	return c
}

// WithProcessMarkers returns a copy of the config with different application markers.
func (c SamplerConfig) WithProcessMarkers(markers ...string) SamplerConfig {
	c.ProcessMarkers = append([]string(nil), markers...)
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c SamplerConfig) Validate() error {
	if c.CPUInterval <= 0 {
		return &ConfigError{Field: "CPUInterval", Message: "must be positive"}
	}
	if c.GroupTimeout <= c.CPUInterval {
		return &ConfigError{Field: "GroupTimeout", Message: "must exceed CPUInterval"}
	}
	if c.DiskPath == "" {
		return &ConfigError{Field: "DiskPath", Message: "must not be empty"}
	}
	if c.TopProcesses < 0 {
		return &ConfigError{Field: "TopProcesses", Message: "must not be negative"}
	}
	if len(c.ProcessMarkers) == 0 {
		return &ConfigError{Field: "ProcessMarkers", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
