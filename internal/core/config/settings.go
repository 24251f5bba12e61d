package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/ralph/internal/core/styles"
	"github.com/hay-kot/ralph/pkg/tmpl"
)

// Settings holds the tool settings read from .ralph/settings.yaml.
type Settings struct {
	Agent AgentSettings `yaml:"agent"`
	Git   GitSettings   `yaml:"git"`
	Loop  LoopSettings  `yaml:"loop"`
	// Theme selects the output color palette.
	Theme string `yaml:"theme"`
	// Prompt overrides the built-in instruction template when non-empty.
	Prompt string `yaml:"prompt,omitempty"`
}

// AgentSettings describes how the external agent is invoked.
type AgentSettings struct {
	Command      string        `yaml:"command"`
	Args         []string      `yaml:"args"`
	AuthTimeout  time.Duration `yaml:"auth_timeout"`
	AuthCacheTTL time.Duration `yaml:"auth_cache_ttl"`
	PlanTimeout  time.Duration `yaml:"plan_timeout"`
}

// GitSettings controls the per-iteration progress commit.
type GitSettings struct {
	Path          string `yaml:"path"`
	Commit        *bool  `yaml:"commit,omitempty"` // nil = enabled
	CommitMessage string `yaml:"commit_message"`
}

// CommitEnabled reports whether progress commits are enabled.
func (g GitSettings) CommitEnabled() bool {
	return g.Commit == nil || *g.Commit
}

// LoopSettings controls the iteration loop.
type LoopSettings struct {
	Delay time.Duration `yaml:"delay"`
}

// CommitTemplateData defines available fields for the commit message template.
type CommitTemplateData struct {
	Iteration int
	SessionID string
}

// PromptTemplateData defines available fields for the prompt template.
type PromptTemplateData struct {
	Refs     []string
	Output   string
	TodoPath string
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Agent: AgentSettings{
			Command:      "claude",
			Args:         []string{"-p", "--dangerously-skip-permissions"},
			AuthTimeout:  30 * time.Second,
			AuthCacheTTL: time.Hour,
			PlanTimeout:  90 * time.Second,
		},
		Git: GitSettings{
			Path:          "git",
			CommitMessage: "ralph: iteration {{ .Iteration }}",
		},
		Loop: LoopSettings{
			Delay: 2 * time.Second,
		},
		Theme: styles.DefaultTheme,
	}
}

// LoadSettings reads settings from path. A missing file yields defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return nil, fmt.Errorf("parse settings file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read settings file: %w", err)
		}
	}

	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &s, nil
}

// WriteSettings writes s to path as YAML, creating the parent directory.
func WriteSettings(s Settings, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// applyDefaults sets default values for any unset settings.
func (s *Settings) applyDefaults() {
	defaults := DefaultSettings()
	if s.Agent.Command == "" {
		s.Agent.Command = defaults.Agent.Command
	}
	if s.Agent.AuthTimeout == 0 {
		s.Agent.AuthTimeout = defaults.Agent.AuthTimeout
	}
	if s.Agent.AuthCacheTTL == 0 {
		s.Agent.AuthCacheTTL = defaults.Agent.AuthCacheTTL
	}
	if s.Agent.PlanTimeout == 0 {
		s.Agent.PlanTimeout = defaults.Agent.PlanTimeout
	}
	if s.Git.Path == "" {
		s.Git.Path = defaults.Git.Path
	}
	if s.Git.CommitMessage == "" {
		s.Git.CommitMessage = defaults.Git.CommitMessage
	}
	if s.Loop.Delay == 0 {
		s.Loop.Delay = defaults.Loop.Delay
	}
	if s.Theme == "" {
		s.Theme = defaults.Theme
	}
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("agent.command", s.Agent.Command, notEmpty),
		criterio.Run("agent.auth_timeout", s.Agent.AuthTimeout, positive),
		criterio.Run("agent.auth_cache_ttl", s.Agent.AuthCacheTTL, notNegative),
		criterio.Run("agent.plan_timeout", s.Agent.PlanTimeout, positive),
		criterio.Run("git.path", s.Git.Path, notEmpty),
		criterio.Run("loop.delay", s.Loop.Delay, notNegative),
		criterio.Run("theme", s.Theme, knownTheme),
		s.validateTemplates(),
	)
}

func (s *Settings) validateTemplates() error {
	var errs criterio.FieldErrorsBuilder

	if _, err := tmpl.Render(s.Git.CommitMessage, CommitTemplateData{}); err != nil {
		errs = errs.Append("git.commit_message", fmt.Errorf("template error: %w", err))
	}

	if s.Prompt != "" {
		if _, err := tmpl.Render(s.Prompt, PromptTemplateData{}); err != nil {
			errs = errs.Append("prompt", fmt.Errorf("template error: %w", err))
		}
	}

	return errs.ToError()
}

func notEmpty(v string) error {
	if v == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(styles.ThemeNames(), ", "))
	}
	return nil
}

func positive(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

func notNegative(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("cannot be negative")
	}
	return nil
}

