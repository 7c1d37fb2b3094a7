package tui

import (
	"context"
	"fmt"
	"time"

	"devopsmon/internal/collector"
	"devopsmon/internal/database/relational"
	"devopsmon/internal/flagger"
	"devopsmon/internal/settings"
	"devopsmon/ui/tui/components"
	"devopsmon/ui/tui/state"
	"devopsmon/ui/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

const (
	// refreshEvery is how many live ticks pass between reloads of stored data.
	refreshEvery = 5
	recentLogs   = 200
	latestPer    = 200
)

// Snapshotter reads the host live.
type Snapshotter interface {
	Snapshot(ctx context.Context) collector.Snapshot
}

// Store is the read side of the time-series store used by the dashboard.
type Store interface {
	LatestByType(ctx context.Context, perType int) (map[collector.MetricType][]collector.Metric, error)
	LatestByName(ctx context.Context, typ collector.MetricType) (map[string]float64, error)
	QueryLogEntries(ctx context.Context, f relational.LogFilter, limit int) ([]relational.LogRecord, error)
}

// SettingsGetter returns the current monitor settings.
type SettingsGetter interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Deps are the data sources behind the pages.
type Deps struct {
	Snapshots Snapshotter
	Store     Store
	Settings  SettingsGetter
}

// MainModel is the Bubble Tea Model acting as the Controller
type MainModel struct {
	deps       Deps
	state      state.AppState
	spinner    spinner.Model
	cpuChart   *components.Series
	memChart   *components.Series
	menuCursor int
	animCursor float64
	velocity   float64
	spring     harmonica.Spring
	scrollY    int
	ticks      int
	mouseX     int
	mouseY     int
	quitting   bool
	width      int
	height     int
}

// Messages
type TickMsg time.Time
type AnimateMsg time.Time
type LiveLoadedMsg struct {
	Snapshot collector.Snapshot
}
type StoredLoadedMsg struct {
	Latest   map[collector.MetricType][]collector.Metric
	Alerts   []flagger.AlertEvent
	Logs     []relational.LogRecord
	Settings settings.Settings
	Err      error
}

func InitialModel(deps Deps) MainModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// High frequency and near-critical damping keep the cursor snappy
	// without overshoot.
	spring := harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9)

	return MainModel{
		deps:     deps,
		spinner:  s,
		cpuChart: components.NewSeries("CPU History", 30, 10),
		memChart: components.NewSeries("Memory History", 30, 6),
		spring:   spring,
		state: state.AppState{
			CurrentPage: state.PageMenu,
		},
	}
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		animateCmd(),
		loadStoredCmd(m.deps),
	)
}

// Commands
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second*1, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func loadLiveCmd(d Deps) tea.Cmd {
	if d.Snapshots == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return LiveLoadedMsg{Snapshot: d.Snapshots.Snapshot(ctx)}
	}
}

func loadStoredCmd(d Deps) tea.Cmd {
	if d.Store == nil || d.Settings == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return loadStored(ctx, d)
	}
}

func loadStored(ctx context.Context, d Deps) StoredLoadedMsg {
	var msg StoredLoadedMsg
	var err error
	if msg.Settings, err = d.Settings.Get(ctx); err != nil {
		msg.Err = fmt.Errorf("load settings: %w", err)
		return msg
	}
	if msg.Latest, err = d.Store.LatestByType(ctx, latestPer); err != nil {
		msg.Err = fmt.Errorf("load metrics: %w", err)
		return msg
	}
	if msg.Logs, err = d.Store.QueryLogEntries(ctx, relational.LogFilter{}, recentLogs); err != nil {
		msg.Err = fmt.Errorf("load logs: %w", err)
		return msg
	}
	latest, err := d.Store.LatestByName(ctx, collector.TypeSystem)
	if err != nil {
		msg.Err = fmt.Errorf("load latest values: %w", err)
		return msg
	}
	msg.Alerts = flagger.Check(latest, flagger.Rules(msg.Settings))
	return msg
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case TickMsg:
		return m.handleTickMsg(msg)

	case LiveLoadedMsg:
		return m.handleLiveLoadedMsg(msg)

	case StoredLoadedMsg:
		return m.handleStoredLoadedMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	if m.state.CurrentPage == state.PageMenu {
		switch msg.String() {
		case "up", "k":
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case "down", "j":
			if m.menuCursor < len(views.MenuOptions)-1 {
				m.menuCursor++
			}
		case "enter":
			m.navigateTo(m.menuCursor)
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.scrollY > 0 {
			m.scrollY--
		}
	case "down", "j":
		m.scrollY++
	case "r":
		return m, loadStoredCmd(m.deps)
	case "b", "esc", "backspace":
		m.state.CurrentPage = state.PageMenu
		m.scrollY = 0
	}
	return m, nil
}

func (m *MainModel) navigateTo(cursor int) {
	pages := []state.Page{state.PageConsole, state.PageDashboard, state.PageCPU, state.PageLogs, state.PageAlerts}
	if cursor >= 0 && cursor < len(pages) {
		m.state.CurrentPage = pages[cursor]
		m.scrollY = 0
	}
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	m.animCursor, m.velocity = m.spring.Update(m.animCursor, m.velocity, float64(m.menuCursor))
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	if newW := msg.Width/2 - 6; newW > 10 {
		m.cpuChart.Resize(newW, 10)
		m.memChart.Resize(newW, 6)
	}
	return m, nil
}

func (m *MainModel) handleTickMsg(msg TickMsg) (tea.Model, tea.Cmd) {
	m.ticks++
	cmds := []tea.Cmd{loadLiveCmd(m.deps), tickCmd()}
	if m.ticks%refreshEvery == 0 {
		cmds = append(cmds, loadStoredCmd(m.deps))
	}
	return m, tea.Batch(cmds...)
}

func (m *MainModel) handleLiveLoadedMsg(msg LiveLoadedMsg) (tea.Model, tea.Cmd) {
	snap := msg.Snapshot
	m.state.Snapshot = snap

	line := fmt.Sprintf("[%s]", snap.Timestamp.Format("15:04:05"))
	if snap.CPU != nil {
		m.cpuChart.Push(snap.CPU.TotalUsage)
		m.state.CPUHistory = m.cpuChart.Samples
		line += fmt.Sprintf(" CPU: %.1f%%", snap.CPU.TotalUsage)
	}
	if snap.Memory != nil {
		m.memChart.Push(snap.Memory.UsedPercent)
		m.state.MemHistory = m.memChart.Samples
		line += fmt.Sprintf(" | RAM: %.1f%%", snap.Memory.UsedPercent)
	}
	if snap.Disk != nil {
		line += fmt.Sprintf(" | Disk: %.1f%%", snap.Disk.UsedPercent)
	}
	for section, e := range snap.Errors {
		line += fmt.Sprintf(" | %s: %s", section, e)
	}

	m.state.ConsoleLogs = append(m.state.ConsoleLogs, line)
	if len(m.state.ConsoleLogs) > 100 {
		m.state.ConsoleLogs = m.state.ConsoleLogs[1:]
	}
	return m, nil
}

func (m *MainModel) handleStoredLoadedMsg(msg StoredLoadedMsg) (tea.Model, tea.Cmd) {
	m.state.Err = msg.Err
	if msg.Err != nil {
		return m, nil
	}
	m.state.Latest = msg.Latest
	m.state.Alerts = msg.Alerts
	m.state.Logs = msg.Logs
	m.state.Settings = msg.Settings
	m.state.LastUpdate = time.Now()
	return m, nil
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX = msg.X
	m.mouseY = msg.Y

	if msg.Action == tea.MouseActionRelease && m.state.CurrentPage == state.PageMenu {
		for i := range views.MenuOptions {
			if zone.Get(views.MenuZone(i)).InBounds(msg) {
				m.menuCursor = i
				m.navigateTo(i)
				return m, nil
			}
		}
	}
	return m, nil
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	return views.Render(m.state, views.ViewProps{
		Width:      m.width,
		Height:     m.height,
		MouseX:     m.mouseX,
		MouseY:     m.mouseY,
		ScrollY:    m.scrollY,
		MenuCursor: m.menuCursor,
		AnimCursor: m.animCursor,
		Spinner:    m.spinner.View(),
		CPUChart:   m.cpuChart.Plot(),
		MemChart:   m.memChart.Plot(),
	})
}

func Start(deps Deps) error {
	m := InitialModel(deps)
	p := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
