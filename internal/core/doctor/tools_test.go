package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/ralph/internal/core/git"
	"github.com/hay-kot/ralph/pkg/executil"
)

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		for _, m := range missing {
			if m == file {
				return "", &exec.Error{Name: file, Err: fmt.Errorf("not found")}
			}
		}
		return "/usr/bin/" + file, nil
	}
}

func repoGit(isRepo bool) git.Git {
	script := []executil.Response{
		{Output: []byte("true\n")},
		{Output: []byte("main\n")},
	}
	if !isRepo {
		script = []executil.Response{{Err: &executil.ExitStatusError{Code: 128}}}
	}
	return git.NewExecutor("git", &executil.RecordingExecutor{
		Script: map[string][]executil.Response{"git": script},
	})
}

func TestToolsCheck_AllPresent(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck("claude", "git", true, repoGit(true), "/work").Run(context.Background())

	assert.Equal(t, "Tools", result.Name)
	require.Len(t, result.Items, 3)

	assert.Equal(t, CheckItem{Label: "claude", Status: StatusPass, Detail: "/usr/bin/claude"}, result.Items[0])
	assert.Equal(t, CheckItem{Label: "git", Status: StatusPass, Detail: "/usr/bin/git"}, result.Items[1])
	assert.Equal(t, CheckItem{Label: "repository", Status: StatusPass, Detail: "/work (main)"}, result.Items[2])
}

func TestToolsCheck_AgentMissing(t *testing.T) {
	stubLookPath(t, "claude")

	result := NewToolsCheck("claude", "git", true, nil, "/work").Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusFail, result.Items[0].Status)
	assert.Equal(t, StatusPass, result.Items[1].Status)
}

func TestToolsCheck_GitMissingIsWarning(t *testing.T) {
	stubLookPath(t, "git")

	result := NewToolsCheck("claude", "git", true, repoGit(true), "/work").Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusWarn, result.Items[1].Status)
	assert.Contains(t, result.Items[1].Detail, "not found on PATH")
}

func TestToolsCheck_NotARepo(t *testing.T) {
	stubLookPath(t)

	result := NewToolsCheck("claude", "git", true, repoGit(false), "/tmp").Run(context.Background())

	require.Len(t, result.Items, 3)
	assert.Equal(t, StatusWarn, result.Items[2].Status)
}

func TestToolsCheck_CommitsDisabled(t *testing.T) {
	stubLookPath(t, "git")

	result := NewToolsCheck("claude", "git", false, nil, "/work").Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, CheckItem{Label: "git", Status: StatusPass, Detail: "progress commits disabled"}, result.Items[1])
}

func TestCount(t *testing.T) {
	results := []Result{
		{Items: []CheckItem{{Status: StatusPass}, {Status: StatusWarn}}},
		{Items: []CheckItem{{Status: StatusFail}, {Status: StatusPass}}},
	}

	got := Count(results)
	assert.Equal(t, Tally{Passed: 2, Warned: 1, Failed: 1}, got)
	assert.False(t, got.Healthy())
	assert.True(t, Count(results[:1]).Healthy(), "warnings are healthy")
}

type namedCheck string

func (c namedCheck) Name() string { return string(c) }

func (c namedCheck) Run(context.Context) Result {
	return Result{Name: string(c), Items: []CheckItem{{Label: string(c), Status: StatusPass}}}
}

func TestRunAll_StopsWhenCancelled(t *testing.T) {
	checks := []Check{namedCheck("a"), namedCheck("b")}

	got := RunAll(context.Background(), checks)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Name)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, RunAll(ctx, checks))
}
