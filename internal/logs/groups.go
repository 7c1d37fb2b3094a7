package logs

import (
	"sort"

	"devopsmon/internal/settings"
)

// Log types recorded with persisted entries.
const (
	TypeFrappe     = "Frappe"
	TypeError      = "Error"
	TypeNginx      = "Nginx"
	TypeSupervisor = "Supervisor"
	TypeSystem     = "System"
)

// Group is a named set of files under one configured directory.
type Group struct {
	Name    string
	LogType string
	Files   []string
	// Source labels every entry of the group. Empty means the file name.
	Source string
	Dir    func(settings.Settings) string
}

func frappeDir(s settings.Settings) string     { return s.FrappeLogPath }
func nginxDir(s settings.Settings) string      { return s.NginxLogPath }
func supervisorDir(s settings.Settings) string { return s.SupervisorLogPath }
func systemDir(s settings.Settings) string     { return s.SystemLogPath }

// Groups are the known log sources keyed by name.
var Groups = map[string]Group{
	"frappe": {
		Name: "frappe", LogType: TypeFrappe, Dir: frappeDir,
		Files: []string{"frappe.log", "web.log", "worker.log", "scheduler.log"},
	},
	"error": {
		Name: "error", LogType: TypeError, Dir: frappeDir,
		Files: []string{"error.log", "web.error.log"},
	},
	"scheduler": {
		Name: "scheduler", LogType: TypeFrappe, Dir: frappeDir,
		Files: []string{"scheduler.log"},
	},
	"nginx_access": {
		Name: "nginx_access", LogType: TypeNginx, Dir: nginxDir, Source: "nginx-access",
		Files: []string{"access.log"},
	},
	"nginx_error": {
		Name: "nginx_error", LogType: TypeNginx, Dir: nginxDir, Source: "nginx-error",
		Files: []string{"error.log"},
	},
	"supervisor": {
		Name: "supervisor", LogType: TypeSupervisor, Dir: supervisorDir, Source: "supervisor",
		Files: []string{"supervisord.log"},
	},
	"system": {
		Name: "system", LogType: TypeSystem, Dir: systemDir,
		Files: []string{"syslog", "messages"},
	},
}

// GroupNames returns the known group names, sorted.
func GroupNames() []string {
	names := make([]string, 0, len(Groups))
	for name := range Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlanStep is one group collected by CollectAll with its line budget.
type PlanStep struct {
	Group  string
	Budget int
}

// DefaultPlan is the periodic collection run.
var DefaultPlan = []PlanStep{
	{Group: "frappe", Budget: 100},
	{Group: "error", Budget: 50},
	{Group: "nginx_access", Budget: 50},
	{Group: "nginx_error", Budget: 20},
	{Group: "supervisor", Budget: 50},
}
