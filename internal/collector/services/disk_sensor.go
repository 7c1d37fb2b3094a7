package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

type DiskResult struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
	// HasIO is false when the host exposes no block device counters.
	HasIO      bool   `json:"has_io"`
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
}

type PartitionStat struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"percent"`
}

// DiskSensor reports usage for one volume plus host-wide I/O totals.
type DiskSensor struct {
	Path string
	// IsDevice selects the counters that go into the I/O totals.
	IsDevice func(name string) bool
}

func NewDiskSensor(path string) *DiskSensor {
	if path == "" {
		path = "/"
	}
	return &DiskSensor{Path: path, IsDevice: IsWholeDevice}
}

const sysBlock = "/sys/block"

// IsWholeDevice reports whether name is a whole block device. Partitions
// such as sda1 have no entry of their own under /sys/block. Hosts without
// /sys/block accept every name.
func IsWholeDevice(name string) bool {
	if _, err := os.Stat(sysBlock); err != nil {
		return true
	}
	_, err := os.Stat(filepath.Join(sysBlock, strings.ReplaceAll(name, "/", "!")))
	return err == nil
}

// SumIO totals read and write bytes over the devices isDevice accepts, so a
// disk and its partitions are not counted twice.
func SumIO(counters map[string]disk.IOCountersStat, isDevice func(string) bool) (read, write uint64) {
	for name, c := range counters {
		if isDevice != nil && !isDevice(name) {
			continue
		}
		read += c.ReadBytes
		write += c.WriteBytes
	}
	return read, write
}

func (s *DiskSensor) Name() string {
	return "Disk"
}

func (s *DiskSensor) Collect(ctx context.Context) (DiskResult, error) {
	u, err := disk.UsageWithContext(ctx, s.Path)
	if err != nil {
		return DiskResult{}, fmt.Errorf("failed to get disk usage for %s: %w", s.Path, err)
	}

	res := DiskResult{
		Path:  u.Path,
		Total: u.Total,
		Used:  u.Used,
		Free:  u.Free,
	}
	if u.Total > 0 {
		res.UsedPercent = float64(u.Used) / float64(u.Total) * 100
	}

	if counters, err := disk.IOCountersWithContext(ctx); err == nil && len(counters) > 0 {
		isDevice := s.IsDevice
		if isDevice == nil {
			isDevice = IsWholeDevice
		}
		res.HasIO = true
		res.ReadBytes, res.WriteBytes = SumIO(counters, isDevice)
	}
	return res, nil
}

// Partitions lists mounted physical partitions with their usage. Mounts whose
// usage cannot be read are skipped.
func Partitions(ctx context.Context) ([]PartitionStat, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get partitions: %w", err)
	}
	out := make([]PartitionStat, 0, len(parts))
	for _, p := range parts {
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		out = append(out, PartitionStat{
			Device:      p.Device,
			Mountpoint:  p.Mountpoint,
			Fstype:      p.Fstype,
			Total:       u.Total,
			Used:        u.Used,
			Free:        u.Free,
			UsedPercent: u.UsedPercent,
		})
	}
	return out, nil
}
