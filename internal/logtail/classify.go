package logtail

import (
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is the normalized form used for entries whose line carries
// no recognizable timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Extractor pairs a timestamp pattern with the layout used to turn a match
// into an instant.
type Extractor struct {
	Name    string
	Pattern *regexp.Regexp
	// Layout is applied after runs of whitespace in the match are collapsed
	// to a single space.
	Layout string
	// NoYear marks layouts that lack a year; the reference year is used.
	NoYear bool
}

// Extractors are tried in order and the first match wins.
var Extractors = []Extractor{
	{
		Name:    "iso",
		Pattern: regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}(?:\.\d+)?`),
		Layout:  "2006-01-02 15:04:05",
	},
	{
		Name:    "common-log",
		Pattern: regexp.MustCompile(`\d{2}/\w+/\d{4}:\d{2}:\d{2}:\d{2}`),
		Layout:  "02/Jan/2006:15:04:05",
	},
	{
		Name:    "syslog",
		Pattern: regexp.MustCompile(`\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}`),
		Layout:  "Jan 2 15:04:05",
		NoYear:  true,
	},
}

// Entry is one classified log line.
type Entry struct {
	// Timestamp is the substring found in the line, or the collection time
	// formatted with TimestampLayout when none was found.
	Timestamp string    `json:"timestamp"`
	Time      time.Time `json:"time"`
	Source    string    `json:"source"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// ExtractTimestamp returns the first timestamp found by Extractors along
// with the byte range of the match.
func ExtractTimestamp(line string) (ts string, ex *Extractor, loc []int) {
	for i := range Extractors {
		if m := Extractors[i].Pattern.FindStringIndex(line); m != nil {
			return line[m[0]:m[1]], &Extractors[i], m
		}
	}
	return "", nil, nil
}

// Classify returns the level, the extracted timestamp (empty when none) and
// the message with the timestamp and its trailing whitespace removed.
// It never fails.
func Classify(line string) (Level, string, string) {
	level := DetectLevel(line)
	ts, _, loc := ExtractTimestamp(line)
	if loc == nil {
		return level, "", strings.TrimSpace(line)
	}
	rest := strings.TrimLeft(line[loc[1]:], " \t\r\n\f\v")
	return level, ts, strings.TrimSpace(line[:loc[0]] + rest)
}

// Parse turns a raw line into an Entry. now supplies the fallback timestamp
// and the year for syslog style stamps.
func Parse(line, source string, now time.Time) Entry {
	level, ts, msg := Classify(line)
	e := Entry{
		Source:  source,
		Level:   level,
		Message: msg,
		Raw:     line,
	}
	if ts == "" {
		e.Timestamp = now.Format(TimestampLayout)
		e.Time = now
		return e
	}
	e.Timestamp = ts
	e.Time = parseTime(ts, now)
	return e
}

func parseTime(ts string, now time.Time) time.Time {
	_, ex, _ := ExtractTimestamp(ts)
	if ex == nil {
		return now
	}
	normalized := strings.Join(strings.Fields(ts), " ")
	t, err := time.ParseInLocation(ex.Layout, normalized, now.Location())
	if err != nil {
		return now
	}
	if ex.NoYear {
		t = t.AddDate(now.Year(), 0, 0)
	}
	return t
}
