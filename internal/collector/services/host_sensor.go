package services

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

type HostResult struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	KernelArch      string `json:"kernel_arch"`
	BootTime        uint64 `json:"boot_time"`
	Uptime          uint64 `json:"uptime"`
	Procs           uint64 `json:"procs"`
	GoVersion       string `json:"go_version"`
}

type HostSensor struct{}

func NewHostSensor() *HostSensor {
	return &HostSensor{}
}

func (s *HostSensor) Name() string {
	return "Host"
}

func (s *HostSensor) Collect(ctx context.Context) (HostResult, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostResult{}, fmt.Errorf("failed to get host info: %w", err)
	}

	return HostResult{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
		BootTime:        info.BootTime,
		Uptime:          info.Uptime,
		Procs:           info.Procs,
		GoVersion:       runtime.Version(),
	}, nil
}
