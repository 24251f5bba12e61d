package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	initcmd "github.com/hay-kot/ralph/internal/commands/init"
)

type InitCmd struct {
	flags  *Flags
	yes    bool
	force  bool
	refs   []string
	output string
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Set up ralph in the working directory with an interactive wizard",
		UsageText: "ralph init [options]",
		Description: `Sets up ralph for first-time use in the working directory.

The wizard will:
  - Write .ralph/config.json with the reference and output directories
  - Write .ralph/settings.yaml with the agent command and commit preference
  - Write .ralph/.gitignore so logs and caches stay out of progress commits
  - Create TODO.md in the output directory

Use --yes to accept all defaults without prompts.
Use --force to overwrite existing files (backups are kept as .bak).`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept defaults without prompting",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration and settings",
				Destination: &cmd.force,
			},
			&cli.StringSliceFlag{
				Name:        "ref",
				Aliases:     []string{"r"},
				Usage:       "reference directory or glob (repeatable)",
				Destination: &cmd.refs,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output directory",
				Destination: &cmd.output,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, _ *cli.Command) error {
	if err := cmd.flags.RequireSettings(); err != nil && !cmd.force {
		return err
	}

	refs, err := expandRefs(cmd.refs, cmd.flags.WorkDir)
	if err != nil {
		return err
	}

	yes := cmd.yes || !interactiveFunc()

	var candidates []string
	if !yes {
		candidates, err = candidateDirs(cmd.flags.WorkDir)
		if err != nil {
			return err
		}
	}

	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		WorkDir:      cmd.flags.WorkDir,
		SettingsPath: cmd.flags.SettingsFile(),
		Settings:     *cmd.flags.Settings,
		Yes:          yes,
		Force:        cmd.force,
		Refs:         refs,
		Output:       cmd.output,
		Candidates:   candidates,
	})

	return wizard.Run(ctx)
}
