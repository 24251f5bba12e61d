// Package agent invokes the external coding agent. The agent is an opaque
// subprocess: it reads a prompt on stdin and writes free-form text.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hay-kot/ralph/pkg/executil"
)

// Request is a single agent invocation.
type Request struct {
	Dir    string
	Prompt string
}

// Result is what the agent produced. Output is the combined stdout and
// stderr text; ExitCode is -1 when the process could not be started.
type Result struct {
	Output   string
	ExitCode int
}

// Agent runs prompts against the external agent.
type Agent interface {
	// Name identifies the agent, used as the auth cache key.
	Name() string
	// Run invokes the agent once. Output is returned even when err is
	// non-nil so the caller can log what the agent printed before failing.
	Run(ctx context.Context, req Request) (Result, error)
}

// CLI runs the agent as a command with the prompt on stdin.
type CLI struct {
	exec    executil.Executor
	command string
	args    []string
}

// NewCLI returns an agent that runs command with args through exec.
func NewCLI(exec executil.Executor, command string, args []string) *CLI {
	return &CLI{exec: exec, command: command, args: args}
}

func (c *CLI) Name() string {
	if len(c.args) == 0 {
		return c.command
	}
	return c.command + " " + strings.Join(c.args, " ")
}

func (c *CLI) Run(ctx context.Context, req Request) (Result, error) {
	out, err := c.exec.RunDirInput(ctx, req.Dir, req.Prompt, c.command, c.args...)
	res := Result{Output: string(out), ExitCode: executil.ExitCode(err)}
	if err != nil {
		return res, fmt.Errorf("run agent: %w", err)
	}
	return res, nil
}
