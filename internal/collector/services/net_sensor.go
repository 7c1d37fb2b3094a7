package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/net"
)

type NetResult struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
	ErrIn       uint64 `json:"errin"`
	ErrOut      uint64 `json:"errout"`
	// Connections is -1 when the connection table could not be read.
	Connections int `json:"connections"`
}

type InterfaceStat struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	Flags     []string `json:"flags"`
	MTU       int      `json:"mtu"`
}

type NetSensor struct{}

func NewNetSensor() *NetSensor {
	return &NetSensor{}
}

func (s *NetSensor) Name() string {
	return "Network"
}

func (s *NetSensor) Collect(ctx context.Context) (NetResult, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return NetResult{}, fmt.Errorf("failed to get net io counters: %w", err)
	}
	c := counters[0]
	res := NetResult{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
		ErrIn:       c.Errin,
		ErrOut:      c.Errout,
		Connections: -1,
	}
	if conns, err := net.ConnectionsWithContext(ctx, "all"); err == nil {
		res.Connections = len(conns)
	}
	return res, nil
}

// Interfaces lists network interfaces with their addresses.
func Interfaces(ctx context.Context) ([]InterfaceStat, error) {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	out := make([]InterfaceStat, 0, len(ifaces))
	for _, i := range ifaces {
		addrs := make([]string, 0, len(i.Addrs))
		for _, a := range i.Addrs {
			addrs = append(addrs, a.Addr)
		}
		out = append(out, InterfaceStat{
			Name:      i.Name,
			Addresses: addrs,
			Flags:     i.Flags,
			MTU:       i.MTU,
		})
	}
	return out, nil
}
