package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), *s)
	assert.True(t, s.Git.CommitEnabled())
	assert.Equal(t, 2*time.Second, s.Loop.Delay)
}

func TestLoadSettings_Overrides(t *testing.T) {
	path := writeSettings(t, `
agent:
  command: my-agent
  args: ["--stdin"]
  auth_timeout: 5s
git:
  commit: false
  commit_message: "wip {{ .Iteration }}"
loop:
  delay: 500ms
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "my-agent", s.Agent.Command)
	assert.Equal(t, []string{"--stdin"}, s.Agent.Args)
	assert.Equal(t, 5*time.Second, s.Agent.AuthTimeout)
	assert.Equal(t, time.Hour, s.Agent.AuthCacheTTL, "unset values keep defaults")
	assert.False(t, s.Git.CommitEnabled())
	assert.Equal(t, "git", s.Git.Path)
	assert.Equal(t, 500*time.Millisecond, s.Loop.Delay)
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := writeSettings(t, "agent: [")

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse settings file")
}

func TestSettingsValidate(t *testing.T) {
	t.Run("invalid commit template", func(t *testing.T) {
		s := DefaultSettings()
		s.Git.CommitMessage = "iteration {{ .Nope }}"

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, s.Validate(), &fieldErrs)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "git.commit_message", fieldErrs[0].Field)
		assert.Contains(t, fieldErrs[0].Err.Error(), "template error")
	})

	t.Run("invalid prompt template", func(t *testing.T) {
		s := DefaultSettings()
		s.Prompt = "{{ .Refs"

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, s.Validate(), &fieldErrs)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "prompt", fieldErrs[0].Field)
	})

	t.Run("negative delay and empty command", func(t *testing.T) {
		s := DefaultSettings()
		s.Loop.Delay = -time.Second
		s.Agent.Command = ""

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, s.Validate(), &fieldErrs)
		assert.Len(t, fieldErrs, 2)
	})

	t.Run("unknown theme", func(t *testing.T) {
		s := DefaultSettings()
		s.Theme = "solarized"

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, s.Validate(), &fieldErrs)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "theme", fieldErrs[0].Field)
		assert.Contains(t, fieldErrs[0].Err.Error(), "tokyo-night")
	})

	t.Run("defaults are valid", func(t *testing.T) {
		s := DefaultSettings()
		assert.NoError(t, s.Validate())
	})
}

func TestWriteSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ralph", "settings.yaml")

	require.NoError(t, WriteSettings(DefaultSettings(), path))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), *s)
}
