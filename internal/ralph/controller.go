// Package ralph drives the agent loop: initialize a session, then run the
// agent with a fixed prompt until it prints the completion sentinel or the
// operator cancels.
package ralph

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hay-kot/ralph/internal/core/agent"
	"github.com/hay-kot/ralph/internal/core/cancel"
	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/git"
	"github.com/hay-kot/ralph/internal/core/logging"
	"github.com/hay-kot/ralph/internal/core/sessionlog"
	"github.com/hay-kot/ralph/internal/core/todo"
	"github.com/hay-kot/ralph/pkg/tmpl"
)

// Phase is the controller lifecycle state.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseLooping      Phase = "looping"
	PhaseCompleted    Phase = "completed"
	PhaseCancelled    Phase = "cancelled"
)

// SessionState is the mutable state of one loop session.
type SessionState struct {
	ID        string
	Iteration int
	StartedAt time.Time
	LogPath   string
	TodoPath  string
	TodoState todo.State

	log *sessionlog.Log
}

// IterationResult is the outcome of one agent invocation.
type IterationResult struct {
	Iteration          int
	ExitCode           int
	Output             string
	CompletionSignaled bool
	Err                error
}

// Summary describes a finished session.
type Summary struct {
	SessionID  string
	Phase      Phase
	Iterations int
	LogPath    string
	TodoPath   string
	Elapsed    time.Duration
}

// Options configures a Controller.
type Options struct {
	WorkDir  string
	Agent    agent.Agent
	Git      git.Git // nil disables progress commits
	Settings config.Settings
	Logger   zerolog.Logger

	// Echo, when set, receives the agent output after each iteration.
	Echo io.Writer
	// OnIteration, when set, is called after each iteration is logged.
	OnIteration func(state *SessionState, res IterationResult)
	// Now overrides the clock.
	Now func() time.Time
}

// Controller runs the iteration loop.
type Controller struct {
	opts  Options
	log   zerolog.Logger
	phase Phase
}

// New creates a Controller.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{opts: opts, log: opts.Logger, phase: PhaseInitializing}
}

// Phase returns the current lifecycle state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Initialize opens the session log, makes sure the output directory and TODO
// document exist and writes the session header.
func (c *Controller) Initialize(ctx context.Context, cfg config.Configuration) (*SessionState, error) {
	c.phase = PhaseInitializing
	now := c.opts.Now()

	l, err := sessionlog.Open(config.LogsDir(c.opts.WorkDir), now)
	if err != nil {
		return nil, err
	}

	todoState, err := todo.EnsureInitialized(cfg.Output)
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	state := &SessionState{
		ID:        uuid.NewString(),
		StartedAt: now,
		LogPath:   l.Path(),
		TodoPath:  todo.Path(cfg.Output),
		TodoState: todoState,
		log:       l,
	}

	err = l.WriteHeader(sessionlog.Header{
		SessionID: state.ID,
		StartedAt: now,
		WorkDir:   c.opts.WorkDir,
		Branch:    c.branch(ctx),
		OutputDir: cfg.Output,
		Refs:      cfg.Refs,
		TodoPath:  state.TodoPath,
		TodoState: string(todoState),
	})
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	c.log.Info().
		Ctx(ctx).
		Str("session_id", state.ID).
		Str("log", state.LogPath).
		Str("todo_state", string(todoState)).
		Msg("session initialized")

	return state, nil
}

// RunIteration invokes the agent once. Agent failures are recorded, never
// returned: only the sentinel decides whether the loop stops.
func (c *Controller) RunIteration(ctx context.Context, prompt string, state *SessionState) IterationResult {
	n := state.Iteration + 1
	ctx = logging.WithIteration(ctx, n)

	c.log.Debug().Ctx(ctx).Msg("running agent")
	res, err := c.opts.Agent.Run(ctx, agent.Request{Dir: c.opts.WorkDir, Prompt: prompt})
	state.Iteration = n

	if err != nil && ctx.Err() == nil {
		c.log.Warn().Ctx(ctx).Err(err).Int("exit_code", res.ExitCode).Msg("agent failed")
	}

	if err := state.log.AppendIteration(n, res.ExitCode, res.Output, c.opts.Now()); err != nil {
		c.log.Warn().Ctx(ctx).Err(err).Msg("append session log")
	}

	if c.opts.Echo != nil {
		_, _ = io.WriteString(c.opts.Echo, res.Output)
	}

	return IterationResult{
		Iteration:          n,
		ExitCode:           res.ExitCode,
		Output:             res.Output,
		CompletionSignaled: agent.CompletionSignaled(res.Output),
		Err:                err,
	}
}

// branch returns the checked out branch of the working directory, or "" when
// git is disabled or the lookup fails.
func (c *Controller) branch(ctx context.Context) string {
	if c.opts.Git == nil {
		return ""
	}
	name, err := c.opts.Git.Branch(ctx, c.opts.WorkDir)
	if err != nil {
		c.log.Debug().Ctx(ctx).Err(err).Msg("current branch")
		return ""
	}
	return name
}

// AttemptCommitProgress stages and commits everything in the working
// directory. Failures are written to the app log and the session log and
// otherwise ignored.
func (c *Controller) AttemptCommitProgress(ctx context.Context, state *SessionState) {
	if c.opts.Git == nil || !c.opts.Settings.Git.CommitEnabled() {
		return
	}
	ctx = logging.WithIteration(ctx, state.Iteration)

	msg, err := tmpl.Render(c.opts.Settings.Git.CommitMessage, config.CommitTemplateData{
		Iteration: state.Iteration,
		SessionID: state.ID,
	})
	if err != nil {
		c.commitFailed(ctx, state, fmt.Errorf("render commit message: %w", err))
		return
	}

	dir := c.opts.WorkDir
	if err := c.opts.Git.StageAll(ctx, dir); err != nil {
		c.commitFailed(ctx, state, err)
		return
	}

	add, del, err := c.opts.Git.StagedStats(ctx, dir)
	if err != nil {
		c.log.Debug().Ctx(ctx).Err(err).Msg("staged stats")
	}

	if err := c.opts.Git.Commit(ctx, dir, msg); err != nil {
		c.commitFailed(ctx, state, err)
		return
	}

	c.log.Info().Ctx(ctx).Int("additions", add).Int("deletions", del).Msg("committed progress")
}

func (c *Controller) commitFailed(ctx context.Context, state *SessionState, err error) {
	c.log.Warn().Ctx(ctx).Err(err).Msg("commit progress")
	if lerr := state.log.Note(fmt.Sprintf("warning: commit failed: %v", err), c.opts.Now()); lerr != nil {
		c.log.Warn().Ctx(ctx).Err(lerr).Msg("append session log")
	}
}

// Run initializes a session and loops until the agent signals completion or
// ctx is cancelled. There is no iteration bound. A gate cancellation is
// returned as cancel.ErrCancelled together with the partial summary.
func (c *Controller) Run(ctx context.Context, cfg config.Configuration) (*Summary, error) {
	if err := cancel.FromContext(ctx); err != nil {
		return nil, err
	}

	state, err := c.Initialize(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = state.log.Close() }()

	ctx = logging.WithSessionID(ctx, state.ID)

	prompt, err := BuildPrompt(c.opts.Settings.Prompt, cfg, state.TodoPath)
	if err != nil {
		return nil, err
	}

	c.phase = PhaseLooping
	delay := c.opts.Settings.Loop.Delay

	for {
		if err := cancel.FromContext(ctx); err != nil {
			return c.stop(ctx, state, err)
		}

		res := c.RunIteration(ctx, prompt, state)

		if err := cancel.FromContext(ctx); err != nil {
			return c.stop(ctx, state, err)
		}

		c.AttemptCommitProgress(ctx, state)

		if c.opts.OnIteration != nil {
			c.opts.OnIteration(state, res)
		}

		if res.CompletionSignaled {
			c.phase = PhaseCompleted
			c.note(ctx, state, fmt.Sprintf("completion signaled after %d iteration(s)", state.Iteration))
			c.log.Info().Ctx(ctx).Int("iterations", state.Iteration).Msg("loop completed")
			return c.summary(state), nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.stop(ctx, state, cancel.FromContext(ctx))
		case <-timer.C:
		}
	}
}

func (c *Controller) stop(ctx context.Context, state *SessionState, err error) (*Summary, error) {
	c.phase = PhaseCancelled
	c.note(ctx, state, fmt.Sprintf("cancelled after %d iteration(s)", state.Iteration))
	c.log.Info().Ctx(ctx).Int("iterations", state.Iteration).Msg("loop cancelled")
	return c.summary(state), err
}

func (c *Controller) note(ctx context.Context, state *SessionState, msg string) {
	if err := state.log.Note(msg, c.opts.Now()); err != nil {
		c.log.Warn().Ctx(ctx).Err(err).Msg("append session log")
	}
}

func (c *Controller) summary(state *SessionState) *Summary {
	return &Summary{
		SessionID:  state.ID,
		Phase:      c.phase,
		Iterations: state.Iteration,
		LogPath:    state.LogPath,
		TodoPath:   state.TodoPath,
		Elapsed:    c.opts.Now().Sub(state.StartedAt),
	}
}
