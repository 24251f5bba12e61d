package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/hay-kot/ralph/internal/core/agent"
	"github.com/hay-kot/ralph/internal/core/cancel"
	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/git"
	"github.com/hay-kot/ralph/internal/store/jsonfile"
	"github.com/hay-kot/ralph/pkg/executil"
)

// Flags holds the global flags and the shared state built in the root Before
// hook.
type Flags struct {
	LogLevel     string
	LogFile      string
	WorkDir      string
	SettingsPath string

	// Settings is loaded in the Before hook and available to all commands.
	// When the settings file is invalid it holds the defaults and SettingsErr
	// records the failure.
	Settings    *config.Settings
	SettingsErr error

	// Gate is the process wide cancellation gate.
	Gate *cancel.Gate

	// Exec runs subprocesses; the gate tracks the agent process it starts.
	Exec executil.Executor
}

// DefaultWorkDir returns the current directory, or "." if it cannot be read.
func DefaultWorkDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// SettingsFile returns the settings path, defaulting to .ralph/settings.yaml
// under the working directory.
func (f *Flags) SettingsFile() string {
	if f.SettingsPath != "" {
		return f.SettingsPath
	}
	return config.SettingsPath(f.WorkDir)
}

// RequireSettings returns the settings load error, if any. Commands that act
// on the settings call it first; diagnostic commands report it instead.
func (f *Flags) RequireSettings() error {
	if f.SettingsErr != nil {
		return fmt.Errorf("%s: %w", f.SettingsFile(), f.SettingsErr)
	}
	return nil
}

// Agent builds the configured agent.
func (f *Flags) Agent() agent.Agent {
	return agent.NewCLI(f.Exec, f.Settings.Agent.Command, f.Settings.Agent.Args)
}

// Git builds the git executor.
func (f *Flags) Git() git.Git {
	return git.NewExecutor(f.Settings.Git.Path, f.Exec)
}

// AuthChecker builds the auth checker backed by the on-disk cache.
func (f *Flags) AuthChecker(logger zerolog.Logger) *agent.AuthChecker {
	cache := jsonfile.NewAuthCache(config.AuthCachePath(f.WorkDir))
	return agent.NewAuthChecker(f.Agent(), cache, f.WorkDir, f.Settings.Agent.AuthCacheTTL, f.Settings.Agent.AuthTimeout, logger)
}

// interactiveFunc reports whether stdin is a terminal. Package-level variable
// to allow test overrides.
var interactiveFunc = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
