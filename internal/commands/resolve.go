package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/ralph/internal/core/config"
)

var (
	errEmptyOutput = errors.New("output directory is required")
	errNoConfig    = fmt.Errorf("no saved configuration and no terminal to ask; pass --ref/--output or run 'ralph init': %w", config.ErrConfigNotFound)
)

// configSource records where a resolved configuration came from.
type configSource string

const (
	sourceFlags       configSource = "flags"
	sourceSaved       configSource = "saved"
	sourceInteractive configSource = "interactive"
)

// resolver turns flags, the saved configuration and operator answers into a
// validated configuration.
type resolver struct {
	workDir     string
	refs        []string
	output      string
	yes         bool
	interactive bool
	prompt      Prompter
}

// resolve applies, in order: explicit flags, the saved configuration
// (confirmed unless yes is set), then interactive selection. The result is
// validated and saved.
func (r *resolver) resolve(ctx context.Context) (config.Configuration, configSource, error) {
	cfg, src, err := r.pick(ctx)
	if err != nil {
		return config.Configuration{}, "", err
	}

	if err := config.Validate(cfg); err != nil {
		return config.Configuration{}, "", err
	}

	if err := config.Save(cfg, r.workDir, config.DefaultPath(r.workDir)); err != nil {
		return config.Configuration{}, "", err
	}

	return cfg, src, nil
}

func (r *resolver) pick(ctx context.Context) (config.Configuration, configSource, error) {
	saved, hasSaved, err := r.loadSaved()
	if err != nil {
		return config.Configuration{}, "", err
	}

	if len(r.refs) > 0 || r.output != "" {
		cfg, err := r.fromFlags(saved, hasSaved)
		return cfg, sourceFlags, err
	}

	if hasSaved {
		if r.yes || !r.interactive {
			return saved, sourceSaved, nil
		}

		use, err := r.prompt.Confirm(ctx, "Use saved configuration?", describe(saved, r.workDir), true)
		if err != nil {
			return config.Configuration{}, "", err
		}
		if use {
			return saved, sourceSaved, nil
		}
	}

	if !r.interactive {
		return config.Configuration{}, "", errNoConfig
	}

	candidates, err := candidateDirs(r.workDir)
	if err != nil {
		return config.Configuration{}, "", err
	}

	cfg, err := r.prompt.SelectConfig(ctx, r.workDir, candidates, saved)
	if err != nil {
		return config.Configuration{}, "", err
	}
	return cfg, sourceInteractive, nil
}

func (r *resolver) loadSaved() (config.Configuration, bool, error) {
	path, ok := config.Discover(r.workDir)
	if !ok {
		return config.Configuration{}, false, nil
	}
	cfg, err := config.Load(path, r.workDir)
	if err != nil {
		return config.Configuration{}, false, err
	}
	return cfg, true, nil
}

// fromFlags builds a configuration from --ref/--output. A flag that is not
// given falls back to the saved value, then to the default output.
func (r *resolver) fromFlags(saved config.Configuration, hasSaved bool) (config.Configuration, error) {
	refs := []string{}
	if len(r.refs) > 0 {
		expanded, err := expandRefs(r.refs, r.workDir)
		if err != nil {
			return config.Configuration{}, err
		}
		refs = expanded
	} else if hasSaved {
		refs = saved.Refs
	}

	output := r.output
	switch {
	case output != "":
	case hasSaved:
		output = saved.Output
	default:
		output = config.DefaultOutput
	}

	return config.Resolve(config.Stored{Refs: refs, Output: output}, r.workDir), nil
}

// describe renders cfg for a confirmation prompt.
func describe(cfg config.Configuration, workDir string) string {
	var b strings.Builder
	b.WriteString("refs:")
	if len(cfg.Refs) == 0 {
		b.WriteString(" none")
	}
	for _, r := range cfg.Refs {
		b.WriteString("\n  ")
		b.WriteString(config.ToStoredForm(r, workDir))
	}
	b.WriteString("\noutput: ")
	b.WriteString(config.ToStoredForm(cfg.Output, workDir))
	return b.String()
}
