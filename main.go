package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ralph/internal/commands"
	"github.com/hay-kot/ralph/internal/core/cancel"
	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/logging"
	"github.com/hay-kot/ralph/internal/core/styles"
	"github.com/hay-kot/ralph/internal/printer"
	"github.com/hay-kot/ralph/pkg/executil"
	"github.com/hay-kot/ralph/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// watchSignals cancels the gate on the first interrupt and exits on the
// second.
func watchSignals(gate *cancel.Gate, p *printer.Printer) func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
		case <-done:
			return
		}
		log.Info().Msg("interrupt received, cancelling")
		p.Printf("")
		p.Warnf("Stopping... press Ctrl+C again to exit immediately")
		gate.Cancel()

		select {
		case <-ch:
			log.Warn().Msg("second interrupt, exiting")
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		stopWatch func()
		gate      = cancel.New()
		p         = printer.New(os.Stderr)
	)

	flags := &commands.Flags{Gate: gate}

	app := &cli.Command{
		Name:      "ralph",
		Usage:     "Run an AI coding agent in a loop until the work is done",
		UsageText: "ralph [global options] [command] [command options]",
		Description: `Ralph feeds the same prompt to an AI coding agent over and over. Between
iterations the agent keeps its progress in TODO.md inside the output
directory, and ralph commits the working tree. The loop ends when the agent
prints <promise>COMPLETE</promise> or you press Ctrl+C.

Run 'ralph' with no arguments to start the loop.
Run 'ralph init' to set up the working directory first.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("RALPH_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <dir>/.ralph/ralph.log)",
				Sources:     cli.EnvVars("RALPH_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"C"},
				Usage:       "working directory the agent runs in",
				Sources:     cli.EnvVars("RALPH_DIR"),
				Value:       commands.DefaultWorkDir(),
				Destination: &flags.WorkDir,
			},
			&cli.StringFlag{
				Name:        "settings",
				Usage:       "path to settings file (defaults to <dir>/.ralph/settings.yaml)",
				Sources:     cli.EnvVars("RALPH_SETTINGS"),
				Destination: &flags.SettingsPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			wd, err := filepath.Abs(flags.WorkDir)
			if err != nil {
				return ctx, fmt.Errorf("resolve working directory: %w", err)
			}
			flags.WorkDir = wd

			logFile := flags.LogFile
			if logFile == "" {
				logFile = config.AppLogFile(wd)
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logging.Install(logger)
			logCloser = closer

			settings, err := config.LoadSettings(flags.SettingsFile())
			if err != nil {
				log.Warn().Err(err).Str("path", flags.SettingsFile()).Msg("settings invalid, using defaults")
				defaults := config.DefaultSettings()
				settings = &defaults
				flags.SettingsErr = err
			}
			flags.Settings = settings

			// Validation ensures the name is known.
			palette, _ := styles.GetPalette(settings.Theme)
			styles.SetTheme(palette)

			flags.Exec = &executil.RealExecutor{Tracker: gate}
			stopWatch = watchSignals(gate, p)

			ctx = printer.NewContext(ctx, p)
			return gate.Context(ctx), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if stopWatch != nil {
				stopWatch()
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	runCmd := commands.NewRunCmd(flags)

	app = runCmd.Register(app)
	app = commands.NewInitCmd(flags).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)
	app = commands.NewTodoCmd(flags).Register(app)
	app = commands.NewDoctorCmd(flags).Register(app)

	// Running without a subcommand starts the loop.
	app.Flags = append(app.Flags, runCmd.RootFlags()...)
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'ralph --help' for usage", c.Args().First())
		}
		return runCmd.Run(ctx, c)
	}

	os.Exit(exitCode(p, app.Run(ctx, os.Args)))
}

// exitCode reports err and maps it to a process exit code. Operator
// cancellation is a normal exit.
func exitCode(p *printer.Printer, err error) int {
	if err == nil {
		return 0
	}

	if cancel.IsCancellation(err) {
		p.Infof("Cancelled")
		return 0
	}

	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		if msg := coder.Error(); msg != "" {
			p.Errorf("%s", msg)
		}
		return coder.ExitCode()
	}

	p.Printf("")
	p.Errorf("%s", err.Error())
	return 1
}
