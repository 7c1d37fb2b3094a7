package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
)

type CPUResult struct {
	TotalUsage float64   `json:"total_usage"`
	PerCore    []float64 `json:"per_core"`
	Cores      int       `json:"cores"`
	Model      string    `json:"model"`
	// FrequencyMHz is zero when the host does not report it.
	FrequencyMHz float64 `json:"frequency_mhz"`
	Load1        float64 `json:"load1"`
	Load5        float64 `json:"load5"`
	Load15       float64 `json:"load15"`
}

// CPUSensor blocks for Interval to measure utilization.
type CPUSensor struct {
	Interval time.Duration
}

func NewCPUSensor(interval time.Duration) *CPUSensor {
	return &CPUSensor{Interval: interval}
}

func (s *CPUSensor) Name() string {
	return "CPU"
}

func (s *CPUSensor) Collect(ctx context.Context) (CPUResult, error) {
	total, err := cpu.PercentWithContext(ctx, s.Interval, false)
	if err != nil || len(total) == 0 {
		return CPUResult{}, fmt.Errorf("failed to get total cpu percent: %w", err)
	}

	// Per-core figures use a short window of their own, the full interval
	// has already been spent on the total.
	perCore, err := cpu.PercentWithContext(ctx, s.Interval/10, true)
	if err != nil {
		return CPUResult{}, fmt.Errorf("failed to get per-core cpu percent: %w", err)
	}

	cores, _ := cpu.CountsWithContext(ctx, true)

	res := CPUResult{
		TotalUsage: total[0],
		PerCore:    perCore,
		Cores:      cores,
		Model:      "Unknown",
	}
	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 {
		res.Model = info[0].ModelName
		res.FrequencyMHz = info[0].Mhz
	}
	// Load averages are zero-filled on hosts that do not support them.
	if avg, err := load.AvgWithContext(ctx); err == nil {
		res.Load1, res.Load5, res.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	return res, nil
}
