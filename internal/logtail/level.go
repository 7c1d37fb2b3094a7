package logtail

import "strings"

// Level is the severity assigned to a log line.
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Levels lists every level from least to most severe.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical}

// levelKeywords is checked top to bottom; the first level with a keyword
// present in the upper-cased line wins.
var levelKeywords = []struct {
	level    Level
	keywords []string
}{
	{LevelCritical, []string{"CRITICAL", "FATAL", "EMERGENCY"}},
	{LevelError, []string{"ERROR"}},
	{LevelWarning, []string{"WARNING", "WARN"}},
	{LevelInfo, []string{"INFO"}},
	{LevelDebug, []string{"DEBUG"}},
}

// DetectLevel classifies a raw line by keyword. Lines without any keyword
// are INFO.
func DetectLevel(line string) Level {
	upper := strings.ToUpper(line)
	for _, lk := range levelKeywords {
		for _, kw := range lk.keywords {
			if strings.Contains(upper, kw) {
				return lk.level
			}
		}
	}
	return LevelInfo
}

// ParseLevel maps a user supplied level name onto a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarning, true
	case "ERROR":
		return LevelError, true
	case "CRITICAL", "FATAL":
		return LevelCritical, true
	}
	return "", false
}

// Valid reports whether l is one of the five known levels.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// IsError reports whether l is ERROR or CRITICAL.
func (l Level) IsError() bool {
	return l == LevelError || l == LevelCritical
}
