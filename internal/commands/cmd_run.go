package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ralph/internal/core/agent"
	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/logging"
	"github.com/hay-kot/ralph/internal/core/styles"
	"github.com/hay-kot/ralph/internal/core/todo"
	"github.com/hay-kot/ralph/internal/printer"
	"github.com/hay-kot/ralph/internal/ralph"
)

type RunCmd struct {
	flags *Flags

	refs     []string
	output   string
	yes      bool
	reset    bool
	skipAuth bool
	echo     bool

	prompt Prompter
}

// NewRunCmd creates the run command.
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags, prompt: huhPrompter{}}
}

// Flags returns the run flags so they can also be registered on the root
// command, which runs the loop when no subcommand is given.
func (cmd *RunCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "ref",
			Aliases:     []string{"r"},
			Usage:       "reference directory or glob, relative to the working directory (repeatable)",
			Destination: &cmd.refs,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output directory for the agent's work and TODO.md",
			Destination: &cmd.output,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "accept the saved configuration and resume without prompting",
			Destination: &cmd.yes,
		},
		&cli.BoolFlag{
			Name:        "reset",
			Usage:       "reset TODO.md to the template before looping",
			Destination: &cmd.reset,
		},
		&cli.BoolFlag{
			Name:        "skip-auth",
			Usage:       "skip the agent auth check",
			Destination: &cmd.skipAuth,
		},
		&cli.BoolFlag{
			Name:        "echo",
			Usage:       "print the agent output after each iteration",
			Destination: &cmd.echo,
		},
	}
}

// RootFlags returns Flags marked local so subcommands that define flags with
// the same names do not inherit them.
func (cmd *RunCmd) RootFlags() []cli.Flag {
	flags := cmd.Flags()
	for _, f := range flags {
		switch f := f.(type) {
		case *cli.StringFlag:
			f.Local = true
		case *cli.StringSliceFlag:
			f.Local = true
		case *cli.BoolFlag:
			f.Local = true
		}
	}
	return flags
}

func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run the agent loop until the work is complete",
		UsageText: "ralph run [options]",
		Description: `Runs the agent repeatedly with the same prompt until it prints
<promise>COMPLETE</promise>. Progress lives in TODO.md inside the output
directory and is committed to git after every iteration.

Configuration is taken from --ref/--output, then from .ralph/config.json,
then from an interactive selection. Press Ctrl+C once to stop after killing
the agent; press it again to exit immediately.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})
	return app
}

// Run resolves the configuration, checks auth and drives the loop.
func (cmd *RunCmd) Run(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.RequireSettings(); err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	logger := logging.Component("run")
	interactive := interactiveFunc()

	r := &resolver{
		workDir:     cmd.flags.WorkDir,
		refs:        cmd.refs,
		output:      cmd.output,
		yes:         cmd.yes,
		interactive: interactive,
		prompt:      cmd.prompt,
	}

	cfg, src, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("source", string(src)).Strs("refs", cfg.Refs).Str("output", cfg.Output).Msg("configuration resolved")
	p.Successf("Configuration saved to %s", config.ToStoredForm(config.DefaultPath(cmd.flags.WorkDir), cmd.flags.WorkDir))

	if _, err := config.WriteIgnoreFile(cmd.flags.WorkDir); err != nil {
		logger.Warn().Err(err).Msg("write ignore file")
	}

	if err := cmd.prepareTodo(ctx, p, cfg, interactive); err != nil {
		return err
	}

	if !cmd.skipAuth {
		if err := cmd.checkAuth(ctx, p, interactive); err != nil {
			return err
		}
	}

	var echo io.Writer
	if cmd.echo {
		echo = c.Root().Writer
	}

	ctrl := ralph.New(ralph.Options{
		WorkDir:  cmd.flags.WorkDir,
		Agent:    cmd.flags.Agent(),
		Git:      cmd.flags.Git(),
		Settings: *cmd.flags.Settings,
		Logger:   logging.Component("ralph"),
		Echo:     echo,
		OnIteration: func(state *ralph.SessionState, res ralph.IterationResult) {
			cmd.printIteration(p, state, res)
		},
	})

	p.Printf("")
	p.Infof("Starting loop (Ctrl+C to stop)")

	sum, err := ctrl.Run(ctx, cfg)
	if sum != nil {
		cmd.printSummary(p, sum)
	}
	return err
}

// prepareTodo decides whether an existing, edited TODO document is resumed
// or reset.
func (cmd *RunCmd) prepareTodo(ctx context.Context, p *printer.Printer, cfg config.Configuration, interactive bool) error {
	path := todo.Path(cfg.Output)

	state, err := todo.Classify(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	switch {
	case cmd.reset:
		return cmd.resetTodo(p, path)
	case !state.InProgress():
		return nil
	case cmd.yes || !interactive:
		p.Infof("Resuming progress in %s", config.ToStoredForm(path, cmd.flags.WorkDir))
		return nil
	}

	progress := describeProgress(path)
	resume, err := cmd.prompt.Confirm(ctx, "Resume previous progress?", progress, true)
	if err != nil {
		return err
	}
	if resume {
		return nil
	}
	return cmd.resetTodo(p, path)
}

func (cmd *RunCmd) resetTodo(p *printer.Printer, path string) error {
	if err := todo.Reset(path); err != nil {
		return err
	}
	p.Successf("Reset %s", config.ToStoredForm(path, cmd.flags.WorkDir))
	return nil
}

func describeProgress(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return path
	}
	prog := todo.CountProgress(string(data))
	return fmt.Sprintf("%s has %d of %d task(s) done", path, prog.Done, prog.Total())
}

// checkAuth verifies the agent before looping. A failed check is reported
// and the loop starts anyway.
func (cmd *RunCmd) checkAuth(ctx context.Context, p *printer.Printer, interactive bool) error {
	checker := cmd.flags.AuthChecker(logging.Component("auth"))

	var (
		st  agent.AuthStatus
		err error
	)
	serr := withSpinner(ctx, interactive, "Checking agent auth...", func() {
		st, err = checker.Check(ctx)
	})
	if serr != nil {
		return serr
	}
	if err != nil {
		return err
	}

	switch {
	case st.OK && st.Cached:
		p.Successf("Agent auth verified %s ago", time.Since(st.CheckedAt).Round(time.Second))
	case st.OK:
		p.Successf("Agent auth verified")
	default:
		p.Warnf("Agent auth check failed: %s", st.Detail)
	}
	return nil
}

func (cmd *RunCmd) printIteration(p *printer.Printer, state *ralph.SessionState, res ralph.IterationResult) {
	label := styles.IterationStyle.Render(fmt.Sprintf("Iteration %d", res.Iteration))
	detail := styles.TextMutedStyle.Render(fmt.Sprintf("exit %d", res.ExitCode))

	progress := ""
	if data, err := os.ReadFile(state.TodoPath); err == nil {
		prog := todo.CountProgress(string(data))
		progress = styles.TextMutedStyle.Render(fmt.Sprintf(" · %d/%d tasks", prog.Done, prog.Total()))
	}

	p.Printf("%s %s%s", label, detail, progress)
	if res.CompletionSignaled {
		p.Successf("Agent signaled completion")
	}
}

func (cmd *RunCmd) printSummary(p *printer.Printer, sum *ralph.Summary) {
	status := styles.TextSuccessStyle.Render("completed")
	if sum.Phase == ralph.PhaseCancelled {
		status = styles.TextWarningStyle.Render("stopped")
	}

	body := fmt.Sprintf("%s after %d iteration(s) in %s\nlog:  %s\ntodo: %s",
		status,
		sum.Iterations,
		sum.Elapsed.Round(time.Second),
		config.ToStoredForm(sum.LogPath, cmd.flags.WorkDir),
		config.ToStoredForm(sum.TodoPath, cmd.flags.WorkDir),
	)

	p.Printf("")
	p.Printf("%s", styles.SummaryStyle.Render(body))
}
