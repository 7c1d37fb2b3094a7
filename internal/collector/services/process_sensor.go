package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

type ProcessInfo struct {
	PID    int32   `json:"pid"`
	Name   string  `json:"name,omitempty"`
	CPU    float64 `json:"cpu_percent,omitempty"`
	Memory float32 `json:"memory_percent,omitempty"`
}

type ProcessResult struct {
	Total int `json:"total"`
	// Matched counts processes whose command line contains one of the markers.
	Matched int           `json:"matched"`
	Top     []ProcessInfo `json:"top"`
}

// ProcessSensor counts processes and ranks them by memory share.
type ProcessSensor struct {
	Markers []string
	TopN    int
}

func NewProcessSensor(markers []string, topN int) *ProcessSensor {
	lower := make([]string, len(markers))
	for i, m := range markers {
		lower[i] = strings.ToLower(m)
	}
	return &ProcessSensor{Markers: lower, TopN: topN}
}

func (s *ProcessSensor) Name() string {
	return "Process"
}

func (s *ProcessSensor) Collect(ctx context.Context) (ProcessResult, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to list processes: %w", err)
	}

	res := ProcessResult{Total: len(procs)}
	ranked := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// Processes can exit between listing and inspection; skip them.
		if cmdline, err := p.CmdlineWithContext(ctx); err == nil && MatchesMarker(cmdline, s.Markers) {
			res.Matched++
		}
		memPct, err := p.MemoryPercentWithContext(ctx)
		if err != nil || memPct == 0 {
			continue
		}
		name, _ := p.NameWithContext(ctx)
		ranked = append(ranked, ProcessInfo{PID: p.Pid, Name: name, Memory: memPct})
	}

	res.Top = TopByMemory(ranked, s.TopN)
	return res, nil
}

// MatchesMarker reports whether cmdline contains any of the lower-cased markers,
// ignoring case.
func MatchesMarker(cmdline string, markers []string) bool {
	if cmdline == "" {
		return false
	}
	lc := strings.ToLower(cmdline)
	for _, m := range markers {
		if m != "" && strings.Contains(lc, m) {
			return true
		}
	}
	return false
}

// TopByMemory returns the n processes with the highest memory share. Ties
// keep their input order.
func TopByMemory(procs []ProcessInfo, n int) []ProcessInfo {
	sorted := append([]ProcessInfo(nil), procs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Memory > sorted[j].Memory
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
