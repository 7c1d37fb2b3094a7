package collector

import (
	"context"
	"time"

	"devopsmon/internal/collector/services"
)

// HostSource exposes the OS counters sampled by Sampler.
type HostSource interface {
	CPU(ctx context.Context, interval time.Duration) (services.CPUResult, error)
	Memory(ctx context.Context) (services.MemResult, error)
	Disk(ctx context.Context, path string) (services.DiskResult, error)
	Network(ctx context.Context) (services.NetResult, error)
	Processes(ctx context.Context, markers []string, top int) (services.ProcessResult, error)
}

// Inventory describes the host rather than sampling it.
type Inventory interface {
	HostInfo(ctx context.Context) (services.HostResult, error)
	Partitions(ctx context.Context) ([]services.PartitionStat, error)
	Interfaces(ctx context.Context) ([]services.InterfaceStat, error)
}

// SystemSource reads the local host through gopsutil.
type SystemSource struct {
	mem  *services.MemSensor
	net  *services.NetSensor
	host *services.HostSensor
}

func NewSystemSource() *SystemSource {
	return &SystemSource{
		mem:  services.NewMemSensor(),
		net:  services.NewNetSensor(),
		host: services.NewHostSensor(),
	}
}

func (s *SystemSource) CPU(ctx context.Context, interval time.Duration) (services.CPUResult, error) {
	return services.NewCPUSensor(interval).Collect(ctx)
}

func (s *SystemSource) Memory(ctx context.Context) (services.MemResult, error) {
	return s.mem.Collect(ctx)
}

func (s *SystemSource) Disk(ctx context.Context, path string) (services.DiskResult, error) {
	return services.NewDiskSensor(path).Collect(ctx)
}

func (s *SystemSource) Network(ctx context.Context) (services.NetResult, error) {
	return s.net.Collect(ctx)
}

func (s *SystemSource) Processes(ctx context.Context, markers []string, top int) (services.ProcessResult, error) {
	return services.NewProcessSensor(markers, top).Collect(ctx)
}

func (s *SystemSource) HostInfo(ctx context.Context) (services.HostResult, error) {
	return s.host.Collect(ctx)
}

func (s *SystemSource) Partitions(ctx context.Context) ([]services.PartitionStat, error) {
	return services.Partitions(ctx)
}

func (s *SystemSource) Interfaces(ctx context.Context) ([]services.InterfaceStat, error) {
	return services.Interfaces(ctx)
}
