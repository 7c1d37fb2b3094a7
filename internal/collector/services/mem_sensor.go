package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

type MemResult struct {
	UsedPercent float64 `json:"used_percent"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	Total       uint64  `json:"total"`
	SwapPercent float64 `json:"swap_percent"`
	SwapUsed    uint64  `json:"swap_used"`
	SwapTotal   uint64  `json:"swap_total"`
}

type MemSensor struct{}

func NewMemSensor() *MemSensor {
	return &MemSensor{}
}

func (s *MemSensor) Name() string {
	return "Memory"
}

func (s *MemSensor) Collect(ctx context.Context) (MemResult, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemResult{}, fmt.Errorf("failed to get virtual memory: %w", err)
	}

	res := MemResult{
		UsedPercent: v.UsedPercent,
		Used:        v.Used,
		Available:   v.Available,
		Total:       v.Total,
		SwapTotal:   v.SwapTotal,
		SwapUsed:    v.SwapTotal - v.SwapFree,
	}
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil && swap != nil {
		res.SwapPercent = swap.UsedPercent
		res.SwapTotal = swap.Total
		res.SwapUsed = swap.Used
	}
	return res, nil
}
