package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ralph/internal/core/doctor"
	"github.com/hay-kot/ralph/internal/core/logging"
	"github.com/hay-kot/ralph/internal/core/styles"
	"github.com/hay-kot/ralph/pkg/iojson"
)

type DoctorCmd struct {
	flags  *Flags
	format string
	auth   bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check the agent, git and the saved configuration",
		UsageText: "ralph doctor [options]",
		Description: `Runs diagnostic checks on the tools ralph shells out to, the saved
configuration and the agent auth cache. Pass --auth to run a live auth
check instead of reporting the cached result.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "auth",
				Usage:       "run a live agent auth check",
				Destination: &cmd.auth,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) checks() []doctor.Check {
	s := cmd.flags.Settings
	return []doctor.Check{
		doctor.NewToolsCheck(s.Agent.Command, s.Git.Path, s.Git.CommitEnabled(), cmd.flags.Git(), cmd.flags.WorkDir),
		doctor.NewConfigCheck(cmd.flags.WorkDir, cmd.flags.SettingsFile()),
		doctor.NewAuthCheck(cmd.flags.AuthChecker(logging.Component("doctor")), cmd.auth),
	}
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	var results []doctor.Result
	err := withSpinner(ctx, cmd.auth && interactiveFunc(), "Running checks...", func() {
		results = doctor.RunAll(ctx, cmd.checks())
	})
	if err != nil {
		return err
	}

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(c.Root().ErrWriter, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	tally := doctor.Count(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Tally    `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: tally.Healthy(),
		Summary: tally,
		Checks:  results,
	}

	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
		return err
	}
	if !tally.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputText(w io.Writer, results []doctor.Result) error {
	divider := styles.DividerStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("Ralph Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render(result.Name))

		for _, item := range result.Items {
			_, _ = fmt.Fprintf(w, "  %s %s%s\n", statusIcon(item.Status), item.Label, itemDetail(item.Detail))
		}

		_, _ = fmt.Fprintln(w)
	}

	tally := doctor.Count(results)
	summary := fmt.Sprintf("%s  %s  %s",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", tally.Passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", tally.Warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", tally.Failed)),
	)
	_, _ = fmt.Fprintln(w, summary)

	if !tally.Healthy() {
		return cli.Exit("", 1)
	}

	return nil
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return styles.TextSuccessStyle.Render("✔")
	case doctor.StatusWarn:
		return styles.TextWarningStyle.Render("●")
	default:
		return styles.TextErrorStyle.Render("✘")
	}
}

func itemDetail(detail string) string {
	if detail == "" {
		return ""
	}
	return " " + styles.TextMutedStyle.Render(detail)
}
