package logtail

import "regexp"

var (
	nginxAccessPattern = regexp.MustCompile(`^(?P<ip>[\d.]+)\s+-\s+(?P<user>\S+)\s+\[(?P<time>[^\]]+)\]\s+"(?P<request>[^"]*)"\s+(?P<status>\d+)\s+(?P<bytes>\d+)\s+"(?P<referer>[^"]*)"\s+"(?P<user_agent>[^"]*)"`)
	errorLinePattern   = regexp.MustCompile(`^\[(?P<time>[^\]]+)\]\s+\[(?P<level>\w+)\](?:\s+\[(?P<source>[^\]]+)\])?\s+(?P<message>.+)`)
)

// AccessRecord is one line of the default nginx "combined" access log.
type AccessRecord struct {
	IP        string `json:"ip"`
	User      string `json:"user"`
	Time      string `json:"time"`
	Request   string `json:"request"`
	Status    string `json:"status"`
	Bytes     string `json:"bytes"`
	Referer   string `json:"referer"`
	UserAgent string `json:"user_agent"`
}

// ErrorRecord is a "[time] [level] [source] message" line.
type ErrorRecord struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// ParseNginxAccess parses a combined-format access log line.
func ParseNginxAccess(line string) (AccessRecord, bool) {
	g := namedGroups(nginxAccessPattern, line)
	if g == nil {
		return AccessRecord{}, false
	}
	return AccessRecord{
		IP:        g["ip"],
		User:      g["user"],
		Time:      g["time"],
		Request:   g["request"],
		Status:    g["status"],
		Bytes:     g["bytes"],
		Referer:   g["referer"],
		UserAgent: g["user_agent"],
	}, true
}

// ParseErrorLine parses a bracketed error log line.
func ParseErrorLine(line string) (ErrorRecord, bool) {
	g := namedGroups(errorLinePattern, line)
	if g == nil {
		return ErrorRecord{}, false
	}
	return ErrorRecord{
		Time:    g["time"],
		Level:   g["level"],
		Source:  g["source"],
		Message: g["message"],
	}, true
}

func namedGroups(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out
}
