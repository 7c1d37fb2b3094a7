package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireProgram(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestRunRejects(t *testing.T) {
	r := NewRunner(discardLogger(), 0)

	tests := []struct {
		name string
		line string
		want error
	}{
		{"empty", "   ", ErrEmpty},
		{"not allowed", "rm -rf /", ErrNotAllowed},
		{"path to allowed program", "/bin/ps aux", ErrNotAllowed},
		{"shell chaining is not parsed", "ls; ps", ErrNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Run(context.Background(), tt.line)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if res.Success || res.Error == "" {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestRunNotAllowedMessage(t *testing.T) {
	res, _ := NewRunner(discardLogger(), 0).Run(context.Background(), "reboot now")
	if res.Error != "Command 'reboot' is not allowed" {
		t.Errorf("error message = %q", res.Error)
	}
}

func TestRunArgumentsAreNotShellExpanded(t *testing.T) {
	requireProgram(t, "echo")
	r := NewRunner(discardLogger(), time.Second, "echo")

	res, err := r.Run(context.Background(), "echo $HOME;id")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || strings.TrimSpace(res.Output) != "$HOME;id" {
		t.Errorf("result = %+v", res)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	requireProgram(t, "false")
	r := NewRunner(discardLogger(), time.Second, "false")

	res, err := r.Run(context.Background(), "false")
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if res.Success {
		t.Error("expected unsuccessful result")
	}
}

func TestRunTimeout(t *testing.T) {
	requireProgram(t, "sleep")
	r := NewRunner(discardLogger(), 100*time.Millisecond, "sleep")

	start := time.Now()
	res, err := r.Run(context.Background(), "sleep 5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if res.Success || res.Error != "Command timed out" {
		t.Errorf("result = %+v", res)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout not enforced, took %v", time.Since(start))
	}
}

func TestDefaultAllowList(t *testing.T) {
	r := NewRunner(discardLogger(), 0)
	for _, p := range DefaultAllowed {
		if !r.Allowed(p) {
			t.Errorf("%s should be allowed", p)
		}
	}
	if r.Allowed("bash") || r.Allowed("sh") {
		t.Error("shells must not be allowed")
	}
}
