package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const (
	// AvgLineBytes is the per-line byte estimate used to size a tail read.
	AvgLineBytes = 300

	exactChunkSize = 8192
)

// Tail returns up to maxLines trailing lines of path without reading the
// whole file. It reads maxLines*AvgLineBytes bytes from the end, so files
// with longer lines may yield fewer lines than requested. A missing or
// empty file yields no lines and no error.
func Tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	f, size, err := openSized(path)
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()

	offset := size - int64(maxLines)*AvgLineBytes
	if offset < 0 {
		offset = 0
	}
	// Read one byte before the window so a partial first line can be told
	// apart from one that starts exactly at the offset.
	start := offset
	if start > 0 {
		start--
	}
	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	partial := false
	if offset > 0 {
		partial = buf[0] != '\n'
		buf = buf[1:]
	}
	lines := splitLines(buf)
	if partial && len(lines) > 0 {
		lines = lines[1:]
	}
	return lastN(lines, maxLines), nil
}

// TailExact returns exactly the last maxLines lines (or all lines when the
// file is shorter) by reading fixed-size chunks backwards until enough
// line breaks have been seen.
func TailExact(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	f, size, err := openSized(path)
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()

	var data []byte
	pos := size
	for pos > 0 {
		n := int64(exactChunkSize)
		if n > pos {
			n = pos
		}
		pos -= n
		chunk := make([]byte, n, n+int64(len(data)))
		if _, err := f.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		data = append(chunk, data...)
		if bytes.Count(bytes.TrimSuffix(data, []byte("\n")), []byte("\n")) >= maxLines {
			break
		}
	}

	lines := splitLines(data)
	if pos > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	return lastN(lines, maxLines), nil
}

func openSized(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("open %s: is a directory", path)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, 0, nil
	}
	return f, info.Size(), nil
}

// splitLines decodes buf leniently and splits it on line breaks. A single
// trailing newline does not produce an empty final line.
func splitLines(buf []byte) []string {
	text := strings.ToValidUTF8(string(buf), "�")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func lastN(lines []string, n int) []string {
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
