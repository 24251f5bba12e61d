package git

import (
	"context"
	"errors"
	"testing"

	"github.com/hay-kot/ralph/pkg/executil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShortStat(t *testing.T) {
	tests := []struct {
		output  string
		wantAdd int
		wantDel int
	}{
		{" 3 files changed, 10 insertions(+), 5 deletions(-)", 10, 5},
		{" 1 file changed, 1 insertion(+)", 1, 0},
		{" 2 files changed, 7 deletions(-)", 0, 7},
		{"", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			add, del := parseShortStat(tt.output)
			assert.Equal(t, tt.wantAdd, add)
			assert.Equal(t, tt.wantDel, del)
		})
	}
}

func TestExecutor_StageAllAndCommit(t *testing.T) {
	rec := &executil.RecordingExecutor{}
	g := NewExecutor("git", rec)
	ctx := context.Background()

	require.NoError(t, g.StageAll(ctx, "/work"))
	require.NoError(t, g.Commit(ctx, "/work", "ralph: iteration 1"))

	require.Len(t, rec.Commands, 2)
	assert.Equal(t, executil.RecordedCommand{Dir: "/work", Cmd: "git", Args: []string{"add", "-A"}}, rec.Commands[0])
	assert.Equal(t, executil.RecordedCommand{Dir: "/work", Cmd: "git", Args: []string{"commit", "-m", "ralph: iteration 1"}}, rec.Commands[1])
}

func TestExecutor_CommitFailureCarriesOutput(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Script: map[string][]executil.Response{
			"git": {{
				Output: []byte("On branch main\nnothing to commit, working tree clean\n"),
				Err:    &executil.ExitStatusError{Code: 1},
			}},
		},
	}
	g := NewExecutor("git", rec)

	err := g.Commit(context.Background(), "/work", "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to commit, working tree clean")

	var exitErr *executil.ExitStatusError
	assert.True(t, errors.As(err, &exitErr))
}

func TestExecutor_IsRepo(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Script: map[string][]executil.Response{
			"git": {
				{Output: []byte("true\n")},
				{Err: &executil.ExitStatusError{Code: 128}},
			},
		},
	}
	g := NewExecutor("git", rec)

	assert.True(t, g.IsRepo(context.Background(), "/repo"))
	assert.False(t, g.IsRepo(context.Background(), "/tmp"))
}

func TestExecutor_Branch_Detached(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Script: map[string][]executil.Response{
			"git": {
				{Output: []byte("\n")},
				{Output: []byte("a1b2c3d\n")},
			},
		},
	}
	g := NewExecutor("git", rec)

	branch, err := g.Branch(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d", branch)
}

func TestExecutor_StagedStats(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Script: map[string][]executil.Response{
			"git": {{Output: []byte(" 2 files changed, 4 insertions(+), 1 deletion(-)\n")}},
		},
	}
	g := NewExecutor("git", rec)

	add, del, err := g.StagedStats(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 4, add)
	assert.Equal(t, 1, del)
	assert.Equal(t, []string{"diff", "--cached", "--shortstat"}, rec.Commands[0].Args)
}
