package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/ralph/internal/core/agent"
	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/styles"
	"github.com/hay-kot/ralph/internal/core/todo"
	"github.com/hay-kot/ralph/internal/printer"
)

var errTodoInProgress = errors.New("TODO.md has progress; pass --yes to overwrite it")

type TodoCmd struct {
	flags *Flags

	output string
	raw    bool
	yes    bool
	goal   string

	prompt Prompter
}

// NewTodoCmd creates the todo command group.
func NewTodoCmd(flags *Flags) *TodoCmd {
	return &TodoCmd{flags: flags, prompt: huhPrompter{}}
}

func (cmd *TodoCmd) outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "output",
		Aliases:     []string{"o"},
		Usage:       "output directory (defaults to the saved configuration)",
		Destination: &cmd.output,
	}
}

func (cmd *TodoCmd) yesFlag(usage string) cli.Flag {
	return &cli.BoolFlag{
		Name:        "yes",
		Aliases:     []string{"y"},
		Usage:       usage,
		Destination: &cmd.yes,
	}
}

// Register adds the todo commands to the application.
func (cmd *TodoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "todo",
		Usage: "Inspect and manage the TODO document the agent works from",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Render TODO.md",
				UsageText: "ralph todo show [options]",
				Flags: []cli.Flag{
					cmd.outputFlag(),
					&cli.BoolFlag{
						Name:        "raw",
						Usage:       "print the markdown without rendering",
						Destination: &cmd.raw,
					},
				},
				Action: cmd.show,
			},
			{
				Name:      "status",
				Usage:     "Print whether TODO.md is untouched or has progress",
				UsageText: "ralph todo status [options]",
				Flags:     []cli.Flag{cmd.outputFlag()},
				Action:    cmd.status,
			},
			{
				Name:      "reset",
				Usage:     "Overwrite TODO.md with the template",
				UsageText: "ralph todo reset [options]",
				Flags:     []cli.Flag{cmd.outputFlag(), cmd.yesFlag("reset without confirmation")},
				Action:    cmd.reset,
			},
			{
				Name:      "plan",
				Usage:     "Ask the agent to break a goal into TODO.md tasks",
				UsageText: "ralph todo plan --goal \"...\" [options]",
				Description: `Runs the agent once with a planning prompt and writes the returned
task list to TODO.md. The call is bounded by agent.plan_timeout.`,
				Flags: []cli.Flag{
					cmd.outputFlag(),
					cmd.yesFlag("overwrite a TODO.md that has progress"),
					&cli.StringFlag{
						Name:        "goal",
						Aliases:     []string{"g"},
						Usage:       "what the agent should accomplish",
						Destination: &cmd.goal,
					},
				},
				Action: cmd.plan,
			},
		},
	})

	return app
}

// todoPath returns TODO.md for --output or the saved configuration.
func (cmd *TodoCmd) todoPath() (string, error) {
	if cmd.output != "" {
		cfg := config.Resolve(config.Stored{Output: cmd.output}, cmd.flags.WorkDir)
		return todo.Path(cfg.Output), nil
	}

	path, ok := config.Discover(cmd.flags.WorkDir)
	if !ok {
		return "", fmt.Errorf("%w: %s (pass --output or run 'ralph init')", config.ErrConfigNotFound, path)
	}
	cfg, err := config.Load(path, cmd.flags.WorkDir)
	if err != nil {
		return "", err
	}
	return todo.Path(cfg.Output), nil
}

func (cmd *TodoCmd) show(_ context.Context, c *cli.Command) error {
	path, err := cmd.todoPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read todo: %w", err)
	}

	w := c.Root().Writer
	if cmd.raw || !isTerminal(os.Stdout) {
		_, err = w.Write(data)
		return err
	}

	out, err := renderMarkdown(string(data), terminalWidth(os.Stdout))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}

func (cmd *TodoCmd) status(_ context.Context, c *cli.Command) error {
	path, err := cmd.todoPath()
	if err != nil {
		return err
	}

	rel := config.ToStoredForm(path, cmd.flags.WorkDir)
	w := c.Root().Writer

	state, err := todo.Classify(path)
	if errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintf(w, "%s %s\n", rel, styles.TextMutedStyle.Render("(not created yet)"))
		return nil
	}
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read todo: %w", err)
	}
	prog := todo.CountProgress(string(data))

	label := styles.TextMutedStyle.Render(string(state))
	if state.InProgress() {
		label = styles.TextWarningStyle.Render("in progress")
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", rel, label)
	_, _ = fmt.Fprintf(w, "  %s  %s\n",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d done", prog.Done)),
		styles.TextMutedStyle.Render(fmt.Sprintf("%d pending", prog.Pending)),
	)
	return nil
}

// confirmOverwrite asks before replacing a TODO document that has progress.
func (cmd *TodoCmd) confirmOverwrite(ctx context.Context, path, title string) (bool, error) {
	state, err := todo.Classify(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !state.InProgress() || cmd.yes {
		return true, nil
	}
	if !interactiveFunc() {
		return false, errTodoInProgress
	}
	return cmd.prompt.Confirm(ctx, title, describeProgress(path), false)
}

func (cmd *TodoCmd) reset(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	path, err := cmd.todoPath()
	if err != nil {
		return err
	}

	ok, err := cmd.confirmOverwrite(ctx, path, "Discard progress in TODO.md?")
	if err != nil || !ok {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := todo.Reset(path); err != nil {
		return err
	}
	p.Successf("Reset %s", config.ToStoredForm(path, cmd.flags.WorkDir))
	return nil
}

func (cmd *TodoCmd) plan(ctx context.Context, _ *cli.Command) error {
	if err := cmd.flags.RequireSettings(); err != nil {
		return err
	}
	p := printer.Ctx(ctx)

	path, err := cmd.todoPath()
	if err != nil {
		return err
	}

	goal := strings.TrimSpace(cmd.goal)
	if goal == "" {
		if !interactiveFunc() {
			return errors.New("--goal is required")
		}
		goal, err = cmd.prompt.Input(ctx, "What should the agent accomplish?", "The agent turns this into TODO.md tasks")
		if err != nil {
			return err
		}
	}

	ok, err := cmd.confirmOverwrite(ctx, path, "Replace TODO.md with a new plan?")
	if err != nil || !ok {
		return err
	}

	if _, err := todo.EnsureInitialized(filepath.Dir(path)); err != nil {
		return err
	}

	planner := agent.NewPlanner(cmd.flags.Agent(), cmd.flags.WorkDir, cmd.flags.Settings.Agent.PlanTimeout)

	var tasks []string
	serr := withSpinner(ctx, interactiveFunc(), "Planning tasks...", func() {
		tasks, err = planner.Plan(ctx, goal, path)
	})
	if serr != nil {
		err = serr
	}
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	p.Success(fmt.Sprintf("Wrote %d task(s)", len(tasks)), config.ToStoredForm(path, cmd.flags.WorkDir))
	for _, t := range tasks {
		p.Printf("  - %s", t)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return min(w, 120)
}
