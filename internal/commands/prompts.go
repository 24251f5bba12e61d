package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"github.com/hay-kot/ralph/internal/core/cancel"
	"github.com/hay-kot/ralph/internal/core/config"
)

// Prompter asks the operator questions. Every method returns an error
// wrapping huh.ErrUserAborted when the operator aborts.
type Prompter interface {
	Confirm(ctx context.Context, title, description string, def bool) (bool, error)
	SelectConfig(ctx context.Context, workDir string, candidates []string, def config.Configuration) (config.Configuration, error)
	Input(ctx context.Context, title, description string) (string, error)
}

// huhPrompter implements Prompter with huh forms.
type huhPrompter struct{}

func (huhPrompter) Confirm(ctx context.Context, title, description string, def bool) (bool, error) {
	v := def
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Value(&v),
	)).RunWithContext(ctx)
	return v, err
}

func (huhPrompter) Input(ctx context.Context, title, description string) (string, error) {
	var v string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Description(description).
			Value(&v),
	)).RunWithContext(ctx)
	return strings.TrimSpace(v), err
}

func (huhPrompter) SelectConfig(ctx context.Context, workDir string, candidates []string, def config.Configuration) (config.Configuration, error) {
	selected := make([]string, 0, len(def.Refs))
	for _, r := range def.Refs {
		selected = append(selected, config.ToStoredForm(r, workDir))
	}

	options := make([]huh.Option[string], 0, len(candidates))
	for _, c := range candidates {
		stored := "./" + filepath.ToSlash(c)
		options = append(options, huh.NewOption(c, stored).Selected(contains(selected, stored)))
	}

	output := config.DefaultOutput
	if def.Output != "" {
		output = config.ToStoredForm(def.Output, workDir)
	}

	var fields []huh.Field
	if len(options) > 0 {
		fields = append(fields, huh.NewMultiSelect[string]().
			Title("Reference directories").
			Description("Read-only context handed to the agent (space to toggle)").
			Options(options...).
			Value(&selected))
	}
	fields = append(fields, huh.NewInput().
		Title("Output directory").
		Description("Where the agent writes its work and TODO.md").
		Value(&output).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errEmptyOutput
			}
			return nil
		}))

	if err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx); err != nil {
		return config.Configuration{}, err
	}

	return config.Resolve(config.Stored{Refs: selected, Output: strings.TrimSpace(output)}, workDir), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// withSpinner runs fn behind a spinner when attached to a terminal. Once ctx
// is done the cancellation is returned, as cancel.ErrCancelled when the gate
// fired, whatever fn or the spinner reported.
func withSpinner(ctx context.Context, interactive bool, title string, fn func()) error {
	var err error
	if interactive {
		err = spinner.New().
			Title(title).
			Context(ctx).
			Action(fn).
			Run()
	} else {
		fn()
	}

	if cerr := cancel.FromContext(ctx); cerr != nil {
		return cerr
	}
	return err
}
