package executil

import (
	"context"
	"fmt"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir   string
	Cmd   string
	Args  []string
	Input string
}

// Response is a scripted result for a single call.
type Response struct {
	Output []byte
	Err    error
}

// ExitStatusError simulates a process that exited with a non-zero status.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode returns the simulated exit status.
func (e *ExitStatusError) ExitCode() int {
	return e.Code
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values, or Script to
// return a different response for each successive call of a command.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command names to their output.
	// Key is the command name (e.g., "git").
	Outputs map[string][]byte

	// Errors maps command names to their error.
	Errors map[string]error

	// Script maps command names to queued responses. Each call pops the
	// first response; once the queue is empty Outputs and Errors apply.
	Script map[string][]Response

	// OnCall, when set, runs after a command is recorded and before its
	// response is returned. The call index is zero-based per command.
	OnCall func(ctx context.Context, cmd RecordedCommand, index int)

	calls map[string]int
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(ctx, RecordedCommand{Cmd: cmd, Args: args})
}

// RunDir records the command with directory and returns configured output/error.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	return e.record(ctx, RecordedCommand{Dir: dir, Cmd: cmd, Args: args})
}

// RunDirInput records the command with its stdin and returns configured output/error.
func (e *RecordingExecutor) RunDirInput(ctx context.Context, dir, input, cmd string, args ...string) ([]byte, error) {
	return e.record(ctx, RecordedCommand{Dir: dir, Cmd: cmd, Args: args, Input: input})
}

func (e *RecordingExecutor) record(ctx context.Context, rc RecordedCommand) ([]byte, error) {
	e.mu.Lock()
	e.Commands = append(e.Commands, rc)

	if e.calls == nil {
		e.calls = make(map[string]int)
	}
	index := e.calls[rc.Cmd]
	e.calls[rc.Cmd]++

	var out []byte
	var err error

	if queue := e.Script[rc.Cmd]; len(queue) > 0 {
		out, err = queue[0].Output, queue[0].Err
		e.Script[rc.Cmd] = queue[1:]
	} else {
		if e.Outputs != nil {
			out = e.Outputs[rc.Cmd]
		}
		if e.Errors != nil {
			err = e.Errors[rc.Cmd]
		}
	}
	hook := e.OnCall
	e.mu.Unlock()

	if hook != nil {
		hook(ctx, rc, index)
	}

	return out, err
}

// Calls returns the recorded commands with the given name.
func (e *RecordingExecutor) Calls(cmd string) []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []RecordedCommand
	for _, c := range e.Commands {
		if c.Cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
	e.calls = nil
}
