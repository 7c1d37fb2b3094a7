package collector

import (
	"context"
	"time"

	"devopsmon/internal/collector/services"
)

// Snapshot is a live, unpersisted view of the host. Sections that could not
// be read are nil and listed in Errors.
type Snapshot struct {
	Timestamp time.Time            `json:"timestamp"`
	CPU       *services.CPUResult  `json:"cpu,omitempty"`
	Memory    *services.MemResult  `json:"memory,omitempty"`
	Disk      *services.DiskResult `json:"disk,omitempty"`
	Network   *services.NetResult  `json:"network,omitempty"`
	Errors    map[string]string    `json:"errors,omitempty"`
}

// Snapshot reads CPU, memory, disk and network without touching the store.
func (s *Sampler) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{Timestamp: s.now()}
	fail := func(section string, err error) {
		if snap.Errors == nil {
			snap.Errors = make(map[string]string)
		}
		snap.Errors[section] = err.Error()
	}

	if c, err := s.source.CPU(ctx, s.cfg.CPUInterval); err != nil {
		fail("cpu", err)
	} else {
		snap.CPU = &c
	}
	if m, err := s.source.Memory(ctx); err != nil {
		fail("memory", err)
	} else {
		snap.Memory = &m
	}
	if d, err := s.source.Disk(ctx, s.cfg.DiskPath); err != nil {
		fail("disk", err)
	} else {
		snap.Disk = &d
	}
	if n, err := s.source.Network(ctx); err != nil {
		fail("network", err)
	} else {
		snap.Network = &n
	}
	return snap
}
