package logs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "x.log", "x")

	tests := []struct {
		name string
		path string
		want error
	}{
		{"directory", dir, nil},
		{"empty", "", ErrEmptyPath},
		{"missing", filepath.Join(dir, "nope"), ErrPathNotFound},
		{"file", file, ErrNotDirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePath(tt.path)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidatePathUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	if err := os.Mkdir(dir, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	if _, err := ValidatePath(dir); !errors.Is(err, ErrPathUnreadable) {
		t.Fatalf("expected ErrPathUnreadable, got %v", err)
	}
}

func TestCheckPath(t *testing.T) {
	ok := CheckPath(t.TempDir())
	if !ok.Valid || ok.Error != "" {
		t.Errorf("CheckPath(dir) = %+v", ok)
	}
	bad := CheckPath("")
	if bad.Valid || bad.Error == "" {
		t.Errorf("CheckPath(\"\") = %+v", bad)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got := ExpandHome("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("ExpandHome(~/logs) = %q", got)
	}
	if got := ExpandHome("/var/log"); got != "/var/log" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := ExpandHome("~user/x"); got != "~user/x" {
		t.Errorf("~user must be left alone: %q", got)
	}
}

func TestListLogFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "web.log", "abc")
	writeFile(t, dir, "notes.txt", "x")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "worker.log", "abcdef")

	files, err := ListLogFiles(dir)
	if err != nil {
		t.Fatalf("ListLogFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %+v", files)
	}
	if files[0].Name != "worker.log" || files[0].Size != 7 {
		t.Errorf("first file = %+v", files[0])
	}
	if files[1].Name != "web.log" || files[1].Size != 4 {
		t.Errorf("second file = %+v", files[1])
	}

	txt, err := ListLogFiles(dir, ".txt")
	if err != nil || len(txt) != 1 {
		t.Errorf("txt files = %+v, %v", txt, err)
	}

	none, err := ListLogFiles(filepath.Join(dir, "missing"))
	if err != nil || none != nil {
		t.Errorf("missing dir = %+v, %v", none, err)
	}
}
