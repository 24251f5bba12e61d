// Package executil provides shell execution utilities.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes after the process has
// been killed. Agents commonly leave helper processes holding stdout open.
const waitDelay = 5 * time.Second

// Executor runs external commands.
type Executor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
	// RunDir executes a command in a specific directory.
	RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error)
	// RunDirInput executes a command in dir with stdin fed from input and
	// returns the combined stdout/stderr output. Output is returned even when
	// the command exits non-zero.
	RunDirInput(ctx context.Context, dir, input, cmd string, args ...string) ([]byte, error)
}

// ProcessTracker is notified when a long-running child process starts and
// exits so it can be killed from outside the call that started it.
type ProcessTracker interface {
	Track(p *os.Process)
	Untrack(p *os.Process)
}

// RealExecutor calls actual commands.
type RealExecutor struct {
	// Tracker, when set, receives the process handle of every RunDirInput call.
	Tracker ProcessTracker
}

// Run executes a command and returns its combined output.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, cmd, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s: %w", cmd, err)
	}
	return out, nil
}

// RunDir executes a command in a specific directory.
func (e *RealExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = dir
	out, err := c.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s in %s: %w", cmd, dir, err)
	}
	return out, nil
}

// RunDirInput executes a command in dir, writing input to its stdin.
func (e *RealExecutor) RunDirInput(ctx context.Context, dir, input, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = dir
	c.Stdin = strings.NewReader(input)
	c.WaitDelay = waitDelay

	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("exec %s: %w", cmd, err)
	}

	if e.Tracker != nil {
		e.Tracker.Track(c.Process)
	}
	err := c.Wait()
	if e.Tracker != nil {
		e.Tracker.Untrack(c.Process)
	}

	if err != nil {
		return buf.Bytes(), fmt.Errorf("exec %s: %w", cmd, err)
	}
	return buf.Bytes(), nil
}

// ExitCode extracts the process exit code from an error returned by an
// Executor. It returns 0 for nil, the exit status for *exec.ExitError and -1
// for anything else (for example a binary that could not be started).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}
