package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ralph/internal/core/cancel"
	"github.com/hay-kot/ralph/internal/core/doctor"
	"github.com/hay-kot/ralph/pkg/executil"
)

func TestDoctorCmd_OutputText(t *testing.T) {
	results := []doctor.Result{
		{Name: "Tools", Items: []doctor.CheckItem{
			{Label: "claude", Status: doctor.StatusPass, Detail: "/usr/bin/claude"},
			{Label: "git", Status: doctor.StatusWarn, Detail: "not found"},
		}},
	}

	var buf bytes.Buffer
	cmd := NewDoctorCmd(newCommandFlags(t, t.TempDir()))
	require.NoError(t, cmd.outputText(&buf, results))

	out := buf.String()
	assert.Contains(t, out, "Ralph Doctor")
	assert.Contains(t, out, "claude /usr/bin/claude")
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 warnings")
	assert.Contains(t, out, "0 failed")
}

func TestDoctorCmd_OutputTextFailureExitCode(t *testing.T) {
	results := []doctor.Result{
		{Name: "Tools", Items: []doctor.CheckItem{{Label: "claude", Status: doctor.StatusFail}}},
	}

	cmd := NewDoctorCmd(newCommandFlags(t, t.TempDir()))
	err := cmd.outputText(&bytes.Buffer{}, results)
	require.Error(t, err)
}

func TestDoctorCmd_Checks(t *testing.T) {
	wd := setupWorkDir(t)
	saveConfig(t, wd, "docs")

	cmd := NewDoctorCmd(newCommandFlags(t, wd))
	checks := cmd.checks()
	require.Len(t, checks, 3)

	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"Tools", "Configuration", "Agent Auth"}, names)
}

func TestDoctorCmd_OutputJSON(t *testing.T) {
	results := []doctor.Result{
		{Name: "Tools", Items: []doctor.CheckItem{{Label: "git", Status: doctor.StatusWarn, Detail: "not found"}}},
	}

	var out bytes.Buffer
	cmd := NewDoctorCmd(newCommandFlags(t, t.TempDir()))
	require.NoError(t, cmd.outputJSON(&cli.Command{Writer: &out}, results))

	var got struct {
		Healthy bool         `json:"healthy"`
		Summary doctor.Tally `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.True(t, got.Healthy)
	assert.Equal(t, doctor.Tally{Warned: 1}, got.Summary)
}

func TestDoctorCmd_CancelledIsNotAFailure(t *testing.T) {
	gate := cancel.New()
	ctx := gate.Context(context.Background())
	gate.Cancel()

	flags := newCommandFlags(t, t.TempDir())
	flags.Exec = &executil.RecordingExecutor{}
	cmd := NewDoctorCmd(flags)
	cmd.auth = true

	var out bytes.Buffer
	err := cmd.run(ctx, &cli.Command{Writer: &out, ErrWriter: &out})
	require.ErrorIs(t, err, cancel.ErrCancelled)
	assert.Empty(t, out.String(), "no report for a cancelled run")
}

func TestWithSpinner_Cancellation(t *testing.T) {
	gate := cancel.New()
	ctx := gate.Context(context.Background())

	ran := false
	require.NoError(t, withSpinner(ctx, false, "working", func() { ran = true }))
	assert.True(t, ran)

	err := withSpinner(ctx, false, "working", func() { gate.Cancel() })
	require.ErrorIs(t, err, cancel.ErrCancelled)

	plain, stop := context.WithCancel(context.Background())
	stop()
	err = withSpinner(plain, false, "working", func() {})
	assert.ErrorIs(t, err, context.Canceled)
}
