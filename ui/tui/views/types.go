package views

import (
	"devopsmon/ui/tui/state"
)

// ViewProps carries what the model owns but the pages draw: terminal size,
// pointer, cursor and the pre-rendered widgets.
type ViewProps struct {
	Width, Height  int
	MouseX, MouseY int
	ScrollY        int

	MenuCursor int
	AnimCursor float64

	Spinner  string
	CPUChart string
	MemChart string
}

// View renders one page.
type View interface {
	Render(s state.AppState, props ViewProps) string
}

var pages = map[state.Page]View{
	state.PageMenu:      MenuView{},
	state.PageDashboard: DashboardView{},
	state.PageConsole:   ConsoleView{},
	state.PageCPU:       CPUView{},
	state.PageLogs:      LogsView{},
	state.PageAlerts:    AlertsView{},
}

// Render draws the current page, falling back to the menu.
func Render(s state.AppState, props ViewProps) string {
	v, ok := pages[s.CurrentPage]
	if !ok {
		v = MenuView{}
	}
	return v.Render(s, props)
}
