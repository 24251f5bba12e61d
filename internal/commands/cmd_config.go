package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/styles"
	"github.com/hay-kot/ralph/internal/printer"
	"github.com/hay-kot/ralph/pkg/iojson"
)

type ConfigCmd struct {
	flags  *Flags
	format string
	fr     *iojson.FileReader[config.Stored]
}

// NewConfigCmd creates the config command group.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags, fr: &iojson.FileReader[config.Stored]{}}
}

// Register adds the config commands to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Inspect and manage the saved loop configuration",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print the saved configuration",
				UsageText: "ralph config show [options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.show,
			},
			{
				Name:        "validate",
				Usage:       "Validate the saved configuration and settings",
				UsageText:   "ralph config validate",
				Description: "Checks that the settings file parses and that every reference directory exists.",
				Action:      cmd.validate,
			},
			{
				Name:      "import",
				Usage:     "Replace the saved configuration with a JSON document",
				UsageText: "ralph config import [-f file]",
				Description: `Reads {"refs": [...], "output": "..."} from a file or stdin. Relative
paths are taken relative to the working directory. The configuration is
validated before it is saved.`,
				Flags:  []cli.Flag{cmd.fr.Flag()},
				Action: cmd.importConfig,
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) load() (config.Configuration, string, error) {
	path, ok := config.Discover(cmd.flags.WorkDir)
	if !ok {
		return config.Configuration{}, path, fmt.Errorf("%w: %s (run 'ralph init')", config.ErrConfigNotFound, path)
	}
	cfg, err := config.Load(path, cmd.flags.WorkDir)
	return cfg, path, err
}

func (cmd *ConfigCmd) stored(cfg config.Configuration) config.Stored {
	s := config.Stored{
		Refs:   make([]string, 0, len(cfg.Refs)),
		Output: config.ToStoredForm(cfg.Output, cmd.flags.WorkDir),
	}
	for _, r := range cfg.Refs {
		s.Refs = append(s.Refs, config.ToStoredForm(r, cmd.flags.WorkDir))
	}
	return s
}

func (cmd *ConfigCmd) show(_ context.Context, c *cli.Command) error {
	cfg, path, err := cmd.load()
	if err != nil {
		return err
	}
	stored := cmd.stored(cfg)

	if cmd.format == "json" {
		out := struct {
			Path     string        `json:"path"`
			Config   config.Stored `json:"config"`
			Settings string        `json:"settings"`
		}{
			Path:     path,
			Config:   stored,
			Settings: cmd.flags.SettingsFile(),
		}
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
	}

	w := c.Root().Writer
	_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(path))
	_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render("refs"))
	if len(stored.Refs) == 0 {
		_, _ = fmt.Fprintln(w, "  "+styles.TextMutedStyle.Render("(none)"))
	}
	for _, r := range stored.Refs {
		_, _ = fmt.Fprintf(w, "  %s\n", r)
	}
	_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render("output"))
	_, _ = fmt.Fprintf(w, "  %s\n", stored.Output)
	return nil
}

func (cmd *ConfigCmd) validate(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)
	failed := false

	if err := cmd.flags.RequireSettings(); err != nil {
		p.FailItem("settings", err.Error())
		failed = true
	} else {
		p.CheckItem("settings", config.ToStoredForm(cmd.flags.SettingsFile(), cmd.flags.WorkDir))
	}

	cfg, path, err := cmd.load()
	switch {
	case err != nil:
		p.FailItem("config", err.Error())
		failed = true
	default:
		p.CheckItem("config", config.ToStoredForm(path, cmd.flags.WorkDir))
		if err := config.Validate(cfg); err != nil {
			p.FailItem("refs", err.Error())
			failed = true
		} else {
			p.CheckItem("refs", fmt.Sprintf("%d director(ies) found", len(cfg.Refs)))
		}
	}

	if failed {
		return cli.Exit("", 1)
	}
	p.Successf("Configuration is valid")
	return nil
}

func (cmd *ConfigCmd) importConfig(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	stored, err := cmd.fr.Read()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if stored.Output == "" {
		return errors.New("import: output is required")
	}

	cfg := config.Resolve(stored, cmd.flags.WorkDir)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	path := config.DefaultPath(cmd.flags.WorkDir)
	if err := config.Save(cfg, cmd.flags.WorkDir, path); err != nil {
		return err
	}

	p.Success("Configuration imported", fmt.Sprintf("%s from %s", config.ToStoredForm(path, cmd.flags.WorkDir), cmd.fr.Source()))
	return nil
}
