package logs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrPathNotFound   = errors.New("path does not exist")
	ErrNotDirectory   = errors.New("path is not a directory")
	ErrPathUnreadable = errors.New("path is not readable")
	ErrEmptyPath      = errors.New("path is empty")
)

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ValidatePath checks that path is a readable directory and returns it with
// "~" expanded.
func ValidatePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	path = ExpandHome(path)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	if err != nil {
		return path, fmt.Errorf("%w: %s: %v", ErrPathUnreadable, path, err)
	}
	if !info.IsDir() {
		return path, fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	d, err := os.Open(path)
	if err != nil {
		return path, fmt.Errorf("%w: %s", ErrPathUnreadable, path)
	}
	defer d.Close()
	if _, err := d.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return path, fmt.Errorf("%w: %s", ErrPathUnreadable, path)
	}
	return path, nil
}

// PathCheck is the result of CheckPath.
type PathCheck struct {
	Valid bool   `json:"valid"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// CheckPath wraps ValidatePath for callers that report instead of fail.
func CheckPath(path string) PathCheck {
	p, err := ValidatePath(path)
	if err != nil {
		return PathCheck{Valid: false, Path: p, Error: err.Error()}
	}
	return PathCheck{Valid: true, Path: p}
}

// FileInfo describes a log file found by ListLogFiles.
type FileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ListLogFiles walks dir and returns files ending in one of exts (".log"
// when none are given), sorted by path. A missing dir yields nothing.
func ListLogFiles(dir string, exts ...string) ([]FileInfo, error) {
	if len(exts) == 0 {
		exts = []string{".log"}
	}
	dir = ExpandHome(dir)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []FileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !hasSuffix(d.Name(), exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{Name: d.Name(), Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func hasSuffix(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
