package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"devopsmon/internal/collector/services"
	"devopsmon/internal/settings"
)

// MockSource satisfies HostSource with canned readings.
type MockSource struct {
	CPUStats  services.CPUResult
	MemStats  services.MemResult
	DiskStats services.DiskResult
	NetStats  services.NetResult
	ProcStats services.ProcessResult
	// Fail names groups that return an error.
	Fail map[string]bool

	mu       sync.Mutex
	cpuCalls int
	delay    time.Duration
}

var errSensor = errors.New("sensor unavailable")

func (m *MockSource) CPU(ctx context.Context, interval time.Duration) (services.CPUResult, error) {
	m.mu.Lock()
	m.cpuCalls++
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.Fail["cpu"] {
		return services.CPUResult{}, errSensor
	}
	return m.CPUStats, nil
}

func (m *MockSource) Memory(ctx context.Context) (services.MemResult, error) {
	if m.Fail["memory"] {
		return services.MemResult{}, errSensor
	}
	return m.MemStats, nil
}

func (m *MockSource) Disk(ctx context.Context, path string) (services.DiskResult, error) {
	if m.Fail["disk"] {
		return services.DiskResult{}, errSensor
	}
	return m.DiskStats, nil
}

func (m *MockSource) Network(ctx context.Context) (services.NetResult, error) {
	if m.Fail["network"] {
		return services.NetResult{}, errSensor
	}
	return m.NetStats, nil
}

func (m *MockSource) Processes(ctx context.Context, markers []string, top int) (services.ProcessResult, error) {
	if m.Fail["process"] {
		return services.ProcessResult{}, errSensor
	}
	return m.ProcStats, nil
}

func (m *MockSource) CPUCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpuCalls
}

type staticSettings struct {
	s   settings.Settings
	err error
}

func (s staticSettings) Get(context.Context) (settings.Settings, error) {
	return s.s, s.err
}

type memoryStore struct {
	mu      sync.Mutex
	batches [][]Metric
	err     error
}

func (m *memoryStore) AppendMetrics(_ context.Context, batch []Metric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]Metric(nil), batch...))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSource() *MockSource {
	return &MockSource{
		CPUStats: services.CPUResult{
			TotalUsage:   42.5,
			PerCore:      []float64{40, 45},
			Cores:        2,
			FrequencyMHz: 2400,
			Load1:        0.5, Load5: 0.4, Load15: 0.3,
		},
		MemStats: services.MemResult{
			UsedPercent: 61.2,
			Used:        5 * bytesPerGB,
			Available:   3 * bytesPerGB,
			Total:       8 * bytesPerGB,
			SwapPercent: 10,
			SwapUsed:    bytesPerGB / 2,
		},
		DiskStats: services.DiskResult{
			Path: "/", Total: 100 * bytesPerGB, Used: 25 * bytesPerGB, Free: 75 * bytesPerGB,
			UsedPercent: 25, HasIO: true, ReadBytes: 512 * bytesPerMB, WriteBytes: 256 * bytesPerMB,
		},
		NetStats: services.NetResult{
			BytesSent: 10 * bytesPerMB, BytesRecv: 20 * bytesPerMB,
			PacketsSent: 100, PacketsRecv: 200, ErrIn: 1, ErrOut: 2, Connections: 17,
		},
		ProcStats: services.ProcessResult{
			Total:   120,
			Matched: 4,
			Top: []services.ProcessInfo{
				{PID: 10, Name: "gunicorn", Memory: 12.5},
				{PID: 11, Name: "redis-server", Memory: 3.25},
			},
		},
	}
}

func enabledSettings() staticSettings {
	return staticSettings{s: settings.Defaults("site1")}
}
