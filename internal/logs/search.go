package logs

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxResults bounds Search when no limit is given.
const DefaultMaxResults = 100

var ErrEmptyTerm = errors.New("search term is empty")

// Match is one line containing the search term.
type Match struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// Search scans every file line by line for term, ignoring case, and stops
// once maxResults matches are found. Missing files are skipped; unreadable
// ones are logged and skipped.
func (c *Collector) Search(ctx context.Context, paths []string, term string, maxResults int) ([]Match, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrEmptyTerm
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	needle := strings.ToLower(term)

	var matches []Match
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		var err error
		matches, err = searchFile(ctx, ExpandHome(path), needle, maxResults, matches)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return matches, ctx.Err()
			}
			c.logger.Warn("search failed", "path", path, "error", err)
			continue
		}
		if len(matches) >= maxResults {
			break
		}
	}
	return matches, nil
}

func searchFile(ctx context.Context, path, needle string, max int, matches []Match) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return matches, err
	}
	defer f.Close()

	name := filepath.Base(path)
	r := bufio.NewReader(f)
	for n := 1; ; n++ {
		line, err := r.ReadString('\n')
		if line != "" {
			if n%4096 == 0 && ctx.Err() != nil {
				return matches, ctx.Err()
			}
			line = strings.ToValidUTF8(line, "")
			if strings.Contains(strings.ToLower(line), needle) {
				matches = append(matches, Match{File: name, Line: n, Content: strings.TrimSpace(line)})
				if len(matches) >= max {
					return matches, nil
				}
			}
		}
		if err == io.EOF {
			return matches, nil
		}
		if err != nil {
			return matches, err
		}
	}
}
