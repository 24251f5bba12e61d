package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ralph/internal/core/todo"
	"github.com/hay-kot/ralph/pkg/executil"
)

const dirtyTodo = "# Tasks\n- [x] first\n- [ ] second\n---\n# Notes\n"

func writeTodo(t *testing.T, wd, content string) string {
	t.Helper()
	path := todo.Path(filepath.Join(wd, "saved-out"))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTodoCmd_Status(t *testing.T) {
	wd := setupWorkDir(t)
	saveConfig(t, wd)
	writeTodo(t, wd, dirtyTodo)

	var out bytes.Buffer
	cmd := NewTodoCmd(newCommandFlags(t, wd))
	require.NoError(t, cmd.status(context.Background(), &cli.Command{Writer: &out}))

	assert.Contains(t, out.String(), "./saved-out/TODO.md")
	assert.Contains(t, out.String(), "in progress")
	assert.Contains(t, out.String(), "1 done")
	assert.Contains(t, out.String(), "1 pending")
}

func TestTodoCmd_StatusNotCreated(t *testing.T) {
	wd := setupWorkDir(t)

	var out bytes.Buffer
	cmd := NewTodoCmd(newCommandFlags(t, wd))
	cmd.output = "elsewhere"
	require.NoError(t, cmd.status(context.Background(), &cli.Command{Writer: &out}))

	assert.Contains(t, out.String(), "not created yet")
}

func TestTodoCmd_ShowRaw(t *testing.T) {
	wd := setupWorkDir(t)
	saveConfig(t, wd)
	writeTodo(t, wd, dirtyTodo)

	var out bytes.Buffer
	cmd := NewTodoCmd(newCommandFlags(t, wd))
	cmd.raw = true
	require.NoError(t, cmd.show(context.Background(), &cli.Command{Writer: &out}))

	assert.Equal(t, dirtyTodo, out.String())
}

func TestRenderMarkdown(t *testing.T) {
	out, err := renderMarkdown(dirtyTodo, 80)
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestTodoCmd_Reset(t *testing.T) {
	t.Run("refuses progress without yes", func(t *testing.T) {
		wd := setupWorkDir(t)
		saveConfig(t, wd)
		path := writeTodo(t, wd, dirtyTodo)

		ctx, _ := printerCtx()
		err := NewTodoCmd(newCommandFlags(t, wd)).reset(ctx, nil)
		require.ErrorIs(t, err, errTodoInProgress)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, dirtyTodo, string(data))
	})

	t.Run("yes", func(t *testing.T) {
		wd := setupWorkDir(t)
		saveConfig(t, wd)
		path := writeTodo(t, wd, dirtyTodo)

		cmd := NewTodoCmd(newCommandFlags(t, wd))
		cmd.yes = true

		ctx, buf := printerCtx()
		require.NoError(t, cmd.reset(ctx, nil))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, todo.Template, string(data))
		assert.Contains(t, buf.String(), "Reset ./saved-out/TODO.md")
	})
}

func TestTodoCmd_Plan(t *testing.T) {
	wd := setupWorkDir(t)
	saveConfig(t, wd)

	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"claude": []byte("Here you go:\n- Read the docs\n- [ ] Write the parser\n")},
	}
	flags := newCommandFlags(t, wd)
	flags.Exec = rec
	flags.Settings.Agent.PlanTimeout = 5 * time.Second

	cmd := NewTodoCmd(flags)
	cmd.goal = "build a parser"

	ctx, buf := printerCtx()
	require.NoError(t, cmd.plan(ctx, nil))

	data, err := os.ReadFile(todo.Path(filepath.Join(wd, "saved-out")))
	require.NoError(t, err)
	assert.Equal(t, "# Tasks\n- [ ] Read the docs\n- [ ] Write the parser\n---\n# Notes\n", string(data))

	calls := rec.Calls("claude")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Input, "build a parser")
	assert.Contains(t, buf.String(), "Wrote 2 task(s)")
}

func TestTodoCmd_PlanRequiresGoal(t *testing.T) {
	wd := setupWorkDir(t)
	saveConfig(t, wd)

	ctx, _ := printerCtx()
	err := NewTodoCmd(newCommandFlags(t, wd)).plan(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--goal")
}
