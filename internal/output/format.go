package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"devopsmon/internal/collector"
	"devopsmon/internal/flagger"
	"devopsmon/internal/logtail"
	"devopsmon/internal/settings"
)

// Section constants to avoid hardcoded strings
const (
	SectionCPU         = "cpu"
	SectionMemory      = "memory"
	SectionDisk        = "disk"
	SectionNetwork     = "network"
	SectionApplication = "application"
	SectionDatabase    = "database"
)

// UI/view-model types (no printing here)
type Item struct {
	Key    string
	Label  string
	Value  float64
	Unit   string
	Status string
	Note   string
}

type Section struct {
	ID    string
	Title string
	Items []Item
}

type DashboardView struct {
	Sections      []Section
	UpdatedAt     time.Time
	TotalMemoryGB float64
	TotalDiskGB   float64
}

var labels = map[string]string{
	"cpu_percent":         "CPU Usage",
	"cpu_count":           "Cores",
	"cpu_frequency":       "Frequency",
	"load_avg_1min":       "Load Avg (1m)",
	"load_avg_5min":       "Load Avg (5m)",
	"load_avg_15min":      "Load Avg (15m)",
	"memory_percent":      "Memory Usage",
	"memory_used_gb":      "Used",
	"memory_available_gb": "Available",
	"memory_total_gb":     "Total",
	"swap_percent":        "Swap Usage",
	"swap_used_gb":        "Swap Used",
	"disk_percent":        "Disk Usage",
	"disk_used_gb":        "Used",
	"disk_free_gb":        "Free",
	"disk_total_gb":       "Total",
	"disk_read_mb":        "Read",
	"disk_write_mb":       "Written",
	"net_sent_mb":         "Sent",
	"net_recv_mb":         "Received",
	"net_packets_sent":    "Packets Sent",
	"net_packets_recv":    "Packets Received",
	"net_errors_in":       "Errors In",
	"net_errors_out":      "Errors Out",
	"net_connections":     "Connections",
	"process_count":       "Processes",
	"frappe_processes":    "Frappe Processes",
	"active_connections":  "Active Connections",
	"table_count":         "Tables",
	"database_size_mb":    "Size",
	"slow_queries":        "Slow Queries",
}

// order ranks well-known names ahead of generated ones within a section.
var order = []string{
	"cpu_percent", "cpu_count", "cpu_frequency", "load_avg_1min", "load_avg_5min", "load_avg_15min",
	"memory_percent", "memory_used_gb", "memory_available_gb", "memory_total_gb", "swap_percent", "swap_used_gb",
	"disk_percent", "disk_used_gb", "disk_free_gb", "disk_total_gb", "disk_read_mb", "disk_write_mb",
	"net_sent_mb", "net_recv_mb", "net_packets_sent", "net_packets_recv", "net_errors_in", "net_errors_out", "net_connections",
	"process_count", "frappe_processes",
	"active_connections", "table_count", "database_size_mb", "slow_queries",
}

// BuildDashboard groups the latest stored readings into UI-ready sections.
// Metrics that carry a threshold in s get an OK/WARN/CRIT status.
func BuildDashboard(latest map[collector.MetricType][]collector.Metric, s settings.Settings) DashboardView {
	sec := map[string]*Section{
		SectionCPU:         {ID: SectionCPU, Title: "CPU"},
		SectionMemory:      {ID: SectionMemory, Title: "Memory"},
		SectionDisk:        {ID: SectionDisk, Title: "Disk"},
		SectionNetwork:     {ID: SectionNetwork, Title: "Network"},
		SectionApplication: {ID: SectionApplication, Title: "Application"},
		SectionDatabase:    {ID: SectionDatabase, Title: "Database"},
	}
	thresholds := make(map[string]float64)
	for _, r := range flagger.Rules(s) {
		thresholds[r.Metric] = r.Threshold
	}

	var view DashboardView
	for typ, metrics := range latest {
		for _, m := range metrics {
			if m.Timestamp.After(view.UpdatedAt) {
				view.UpdatedAt = m.Timestamp
			}
			switch m.Name {
			case "memory_total_gb":
				view.TotalMemoryGB = m.Value
			case "disk_total_gb":
				view.TotalDiskGB = m.Value
			}

			it := Item{Key: m.Name, Label: Label(m.Name), Value: m.Value, Unit: m.Unit}
			if t, ok := thresholds[m.Name]; ok {
				it.Status = flagger.Status(m.Value, flagger.FromThreshold(t))
				it.Note = fmt.Sprintf("threshold %v%%", t)
			}
			if name, ok := m.Details["name"].(string); ok {
				it.Note = name
			}
			id := sectionFor(typ, m.Name)
			sec[id].Items = append(sec[id].Items, it)
		}
	}

	for _, id := range []string{SectionCPU, SectionMemory, SectionDisk, SectionNetwork, SectionApplication, SectionDatabase} {
		section := sec[id]
		items := section.Items
		sort.SliceStable(items, func(i, j int) bool { return itemLess(items[i].Key, items[j].Key) })
		view.Sections = append(view.Sections, *section)
	}
	return view
}

func sectionFor(typ collector.MetricType, name string) string {
	switch typ {
	case collector.TypeNetwork:
		return SectionNetwork
	case collector.TypeApplication:
		return SectionApplication
	case collector.TypeDatabase:
		return SectionDatabase
	}
	switch {
	case strings.HasPrefix(name, "memory_"), strings.HasPrefix(name, "swap_"):
		return SectionMemory
	case strings.HasPrefix(name, "disk_"):
		return SectionDisk
	case strings.HasPrefix(name, "process_"), strings.HasPrefix(name, "top_proc_"):
		return SectionApplication
	}
	return SectionCPU
}

// Label returns the display name of a metric.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	if n, ok := indexed(name, "cpu_", "_usage"); ok {
		return fmt.Sprintf("Core %d", n)
	}
	if n, ok := indexed(name, "top_proc_", "_memory"); ok {
		return fmt.Sprintf("Top #%d Memory", n)
	}
	return name
}

func indexed(name, prefix, suffix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
	return n, err == nil
}

func rank(name string) (int, int) {
	for i, k := range order {
		if k == name {
			return i, 0
		}
	}
	if n, ok := indexed(name, "cpu_", "_usage"); ok {
		return len(order), n
	}
	if n, ok := indexed(name, "top_proc_", "_memory"); ok {
		return len(order) + 1, n
	}
	return len(order) + 2, 0
}

func itemLess(a, b string) bool {
	ra, na := rank(a)
	rb, nb := rank(b)
	if ra != rb {
		return ra < rb
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

func (v DashboardView) SectionByID(id string) *Section {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

func (s Section) ItemByKey(key string) *Item {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return &s.Items[i]
		}
	}
	return nil
}

// FormatBytes renders b with a binary unit, e.g. "1.5 GB".
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders d as days, hours and minutes, e.g. "3d 4h 5m".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// LevelColor is the terminal color used for a log level.
func LevelColor(l logtail.Level) lipgloss.Color {
	switch l {
	case logtail.LevelCritical:
		return lipgloss.Color("201")
	case logtail.LevelError:
		return lipgloss.Color("196")
	case logtail.LevelWarning:
		return lipgloss.Color("220")
	case logtail.LevelDebug:
		return lipgloss.Color("244")
	}
	return lipgloss.Color("46")
}

// StatusColor is the terminal color used for an OK/WARN/CRIT status.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case flagger.StatusWarning:
		return lipgloss.Color("220")
	case flagger.StatusCritical:
		return lipgloss.Color("196")
	}
	return lipgloss.Color("46")
}
