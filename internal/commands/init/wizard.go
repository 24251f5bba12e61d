// Package initcmd implements the first-run wizard that writes the loop
// configuration and the settings file.
package initcmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/internal/core/doctor"
	"github.com/hay-kot/ralph/internal/core/todo"
	"github.com/hay-kot/ralph/internal/printer"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	WorkDir      string
	SettingsPath string
	Settings     config.Settings // current settings, used as defaults
	Yes          bool            // skip prompts, use defaults
	Force        bool            // overwrite existing files
	Refs         []string        // absolute reference dirs given on the command line
	Output       string          // output dir given on the command line
	Candidates   []string        // directories offered for selection, relative to WorkDir
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{opts: opts}
}

// answers are the values collected from flags, defaults and the form.
type answers struct {
	refs   []string // stored form
	output string   // stored form
	agent  string
	commit bool
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)
	configPath := config.DefaultPath(w.opts.WorkDir)

	if Exists(configPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", configPath)
		}

		overwrite := false
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Configuration already exists").
				Description(configPath + "\nOverwrite? (a backup will be created)").
				Value(&overwrite),
		)).RunWithContext(ctx)
		if err != nil {
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	a := w.defaults()
	if !w.opts.Yes {
		if err := w.promptUser(ctx, &a); err != nil {
			return err
		}
	}

	cfg := config.Resolve(config.Stored{Refs: a.refs, Output: a.output}, w.opts.WorkDir)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if backup, err := Backup(configPath); err != nil {
		return fmt.Errorf("backup config: %w", err)
	} else if backup != "" {
		p.Successf("Backed up config to: %s", w.rel(backup))
	}

	if err := config.Save(cfg, w.opts.WorkDir, configPath); err != nil {
		return err
	}
	p.Successf("Created config: %s", w.rel(configPath))

	if err := w.writeSettings(p, a); err != nil {
		return err
	}

	if wrote, err := config.WriteIgnoreFile(w.opts.WorkDir); err != nil {
		p.Warnf("Failed to write ignore file: %v", err)
	} else if wrote {
		p.Successf("Created %s", w.rel(filepath.Join(w.opts.WorkDir, config.DirName, ".gitignore")))
	}

	state, err := todo.EnsureInitialized(cfg.Output)
	if err != nil {
		return err
	}
	if state == todo.StateCreated {
		p.Successf("Created %s", w.rel(todo.Path(cfg.Output)))
	}

	p.Printf("")
	result := doctor.NewConfigCheck(w.opts.WorkDir, w.opts.SettingsPath).Run(ctx)

	p.Section(result.Name)
	for _, item := range result.Items {
		switch item.Status {
		case doctor.StatusPass:
			p.CheckItem(item.Label, item.Detail)
		case doctor.StatusWarn:
			p.WarnItem(item.Label, item.Detail)
		case doctor.StatusFail:
			p.FailItem(item.Label, item.Detail)
		}
	}

	w.printNextSteps(p, state)
	return nil
}

func (w *Wizard) defaults() answers {
	a := answers{
		refs:   []string{},
		output: config.DefaultOutput,
		agent:  w.opts.Settings.Agent.Command,
		commit: w.opts.Settings.Git.CommitEnabled(),
	}

	if path, ok := config.Discover(w.opts.WorkDir); ok {
		if saved, err := config.Load(path, w.opts.WorkDir); err == nil {
			for _, r := range saved.Refs {
				a.refs = append(a.refs, w.rel(r))
			}
			a.output = w.rel(saved.Output)
		}
	}

	if len(w.opts.Refs) > 0 {
		a.refs = a.refs[:0]
		for _, r := range w.opts.Refs {
			a.refs = append(a.refs, w.rel(r))
		}
	}
	if w.opts.Output != "" {
		a.output = w.opts.Output
	}
	return a
}

func (w *Wizard) promptUser(ctx context.Context, a *answers) error {
	var fields []huh.Field

	if len(w.opts.Candidates) > 0 {
		options := make([]huh.Option[string], 0, len(w.opts.Candidates))
		for _, c := range w.opts.Candidates {
			value := "./" + filepath.ToSlash(c)
			options = append(options, huh.NewOption(c, value).Selected(contains(a.refs, value)))
		}
		fields = append(fields, huh.NewMultiSelect[string]().
			Title("Reference directories").
			Description("Read-only context handed to the agent (space to toggle)").
			Options(options...).
			Value(&a.refs))
	}

	fields = append(fields,
		huh.NewInput().
			Title("Output directory").
			Description("Where the agent writes its work and TODO.md").
			Value(&a.output).
			Validate(huh.ValidateNotEmpty()),
		huh.NewInput().
			Title("Agent command").
			Description("Executable that receives the prompt on stdin").
			Value(&a.agent).
			Validate(huh.ValidateNotEmpty()),
		huh.NewConfirm().
			Title("Commit progress after every iteration?").
			Description("Runs git add -A and git commit in the working directory").
			Value(&a.commit),
	)

	return huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx)
}

// writeSettings writes the settings file when it is missing or --force is
// set. Only the answers collected by the wizard are changed.
func (w *Wizard) writeSettings(p *printer.Printer, a answers) error {
	path := w.opts.SettingsPath
	if Exists(path) && !w.opts.Force {
		p.Infof("Keeping existing settings: %s", w.rel(path))
		return nil
	}

	s := w.opts.Settings
	s.Agent.Command = a.agent
	commit := a.commit
	s.Git.Commit = &commit

	if backup, err := Backup(path); err != nil {
		return fmt.Errorf("backup settings: %w", err)
	} else if backup != "" {
		p.Successf("Backed up settings to: %s", w.rel(backup))
	}

	if err := config.WriteSettings(s, path); err != nil {
		return err
	}
	p.Successf("Created settings: %s", w.rel(path))
	return nil
}

func (w *Wizard) printNextSteps(p *printer.Printer, state todo.State) {
	p.Printf("")
	p.Section("Next Steps")

	step := 1
	if state != todo.StateDirty {
		p.Printf("  %d. Run 'ralph todo plan --goal \"...\"' to seed TODO.md", step)
		step++
	}
	p.Printf("  %d. Run 'ralph doctor --auth' to verify the agent", step)
	step++
	p.Printf("  %d. Run 'ralph' to start the loop", step)
}

func (w *Wizard) rel(path string) string {
	return config.ToStoredForm(path, w.opts.WorkDir)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
