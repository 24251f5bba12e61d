package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func TestExpandRefs(t *testing.T) {
	wd := t.TempDir()
	mkdirs(t, wd, "docs/api", "docs/guides", "specs")
	require.NoError(t, os.WriteFile(filepath.Join(wd, "docs", "README.md"), []byte("x"), 0o644))

	t.Run("plain paths pass through", func(t *testing.T) {
		got, err := expandRefs([]string{"specs", "./missing", "/abs/path"}, wd)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(wd, "specs"),
			filepath.Join(wd, "missing"),
			"/abs/path",
		}, got)
	})

	t.Run("globs keep directories only", func(t *testing.T) {
		got, err := expandRefs([]string{"docs/*"}, wd)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(wd, "docs", "api"),
			filepath.Join(wd, "docs", "guides"),
		}, got)
	})

	t.Run("duplicates are dropped in order", func(t *testing.T) {
		got, err := expandRefs([]string{"specs", "{specs,docs}"}, wd)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(wd, "specs"), filepath.Join(wd, "docs")}, got)
	})

	t.Run("glob without matches", func(t *testing.T) {
		_, err := expandRefs([]string{"nothing/*"}, wd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "matched no directories")
	})
}

func TestCandidateDirs(t *testing.T) {
	wd := t.TempDir()
	mkdirs(t, wd, "docs/api", "src", ".git/objects", ".ralph/logs", "node_modules/pkg", "web/node_modules", "a/b/c")
	require.NoError(t, os.WriteFile(filepath.Join(wd, "main.go"), []byte("package main"), 0o644))

	got, err := candidateDirs(wd)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a/b", "docs", "docs/api", "src", "web"}, got)
}
