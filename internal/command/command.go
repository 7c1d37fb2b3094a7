// Package command runs allow-listed diagnostic commands without a shell.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single command.
const DefaultTimeout = 30 * time.Second

// DefaultAllowed are the programs operators may run.
var DefaultAllowed = []string{"ping", "curl", "netstat", "ss", "df", "du", "ps", "top", "htop"}

var (
	ErrEmpty      = errors.New("command is empty")
	ErrNotAllowed = errors.New("command is not allowed")
	ErrTimeout    = errors.New("command timed out")
)

// Result is what a caller reports back to the operator.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner executes commands from its allow-list.
type Runner struct {
	allowed map[string]bool
	timeout time.Duration
	logger  *slog.Logger
}

func NewRunner(logger *slog.Logger, timeout time.Duration, allowed ...string) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowed
	}
	r := &Runner{
		allowed: make(map[string]bool, len(allowed)),
		timeout: timeout,
		logger:  logger.With("component", "command"),
	}
	for _, name := range allowed {
		r.allowed[name] = true
	}
	return r
}

// Allowed reports whether program may be run.
func (r *Runner) Allowed(program string) bool {
	return r.allowed[program]
}

// Run splits line on whitespace and executes it directly. Arguments are
// never interpreted by a shell. A non-zero exit is an unsuccessful Result,
// not an error; refusals and timeouts return both a Result and an error.
func (r *Runner) Run(ctx context.Context, line string) (Result, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return Result{Error: ErrEmpty.Error()}, ErrEmpty
	}
	if !r.allowed[args[0]] {
		err := fmt.Errorf("%w: %q", ErrNotAllowed, args[0])
		return Result{Error: fmt.Sprintf("Command '%s' is not allowed", args[0])}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	r.logger.Info("command executed", "program", args[0], "args", len(args)-1, "duration", time.Since(start), "error", err)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{Output: stdout.String(), Error: "Command timed out"}, ErrTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Success: false, Output: stdout.String(), Error: stderr.String()}, nil
	}
	if err != nil {
		return Result{Error: err.Error()}, fmt.Errorf("run %s: %w", args[0], err)
	}
	return Result{Success: true, Output: stdout.String(), Error: stderr.String()}, nil
}
