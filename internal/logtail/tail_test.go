package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func TestTailMissingAndEmpty(t *testing.T) {
	lines, err := Tail(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("missing file: got %v, %v", lines, err)
	}

	lines, err = Tail(writeFile(t, ""), 10)
	if err != nil || len(lines) != 0 {
		t.Fatalf("empty file: got %v, %v", lines, err)
	}
}

func TestTailSmallFile(t *testing.T) {
	path := writeFile(t, strings.Join(numbered(5), "\n")+"\n")

	lines, err := Tail(path, 3)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	want := []string{"line 3", "line 4", "line 5"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v; want %v", lines, want)
	}

	lines, _ = Tail(path, 50)
	if len(lines) != 5 {
		t.Fatalf("expected all 5 lines, got %d", len(lines))
	}
}

func TestTailDropsPartialFirstLine(t *testing.T) {
	long := strings.Repeat("x", 1000)
	path := writeFile(t, long+"\nshort\n")

	lines, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(lines) != 1 || lines[0] != "short" {
		t.Fatalf("got %v; want only the complete trailing line", lines)
	}
}

func TestTailInvalidUTF8(t *testing.T) {
	path := writeFile(t, "ok\n\xff\xfebad\n")
	lines, err := Tail(path, 5)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(lines) != 2 || !strings.HasSuffix(lines[1], "bad") {
		t.Fatalf("got %q", lines)
	}
}

func TestTailCRLF(t *testing.T) {
	path := writeFile(t, "a\r\nb\r\n")
	lines, _ := Tail(path, 5)
	if strings.Join(lines, ",") != "a,b" {
		t.Fatalf("got %q", lines)
	}
}

func TestTailExactLongLines(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 40; i++ {
		fmt.Fprintf(&b, "%d %s\n", i, strings.Repeat("y", 900))
	}
	path := writeFile(t, b.String())

	lines, err := TailExact(path, 10)
	if err != nil {
		t.Fatalf("TailExact failed: %v", err)
	}
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "31 ") || !strings.HasPrefix(lines[9], "40 ") {
		t.Fatalf("unexpected window: first=%.5q last=%.5q", lines[0], lines[9])
	}
}

func TestTailWithinBudget_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	dir := t.TempDir()

	properties.Property("short lines tail exactly", prop.ForAll(
		func(total, n int) bool {
			lines := numbered(total)
			path := filepath.Join(dir, fmt.Sprintf("p-%d-%d.log", total, n))
			if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
				return false
			}
			got, err := Tail(path, n)
			if err != nil {
				return false
			}
			want := lines
			if len(want) > n {
				want = want[len(want)-n:]
			}
			return strings.Join(got, "\n") == strings.Join(want, "\n")
		},
		gen.IntRange(1, 200),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}
