package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	wd := t.TempDir()
	path := DefaultPath(wd)

	cfg := Configuration{
		Refs:   []string{wd, filepath.Join(wd, "docs")},
		Output: filepath.Join(wd, "out"),
	}

	require.NoError(t, Save(cfg, wd, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
  "refs": [
    ".",
    "./docs"
  ],
  "output": "./out"
}
`, string(data))

	loaded, err := Load(path, wd)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_EmptyRefsWritesArray(t *testing.T) {
	wd := t.TempDir()
	path := DefaultPath(wd)

	require.NoError(t, Save(Configuration{Output: wd}, wd, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"refs": []`)
	assert.Contains(t, string(data), `"output": "."`)
}

func TestSave_Overwrites(t *testing.T) {
	wd := t.TempDir()
	path := DefaultPath(wd)

	require.NoError(t, Save(Configuration{Refs: []string{filepath.Join(wd, "a")}, Output: wd}, wd, path))
	require.NoError(t, Save(Configuration{Output: filepath.Join(wd, "b")}, wd, path))

	loaded, err := Load(path, wd)
	require.NoError(t, err)
	assert.Empty(t, loaded.Refs)
	assert.Equal(t, filepath.Join(wd, "b"), loaded.Output)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), "/work")
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path, "/work")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_ResolvesAgainstWorkDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"refs": [".", "./lib"], "output": "./out"}`), 0o644))

	cfg, err := Load(path, "/srv/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/app", "/srv/app/lib"}, cfg.Refs)
	assert.Equal(t, "/srv/app/out", cfg.Output)
}

func TestDiscover(t *testing.T) {
	wd := t.TempDir()

	path, ok := Discover(wd)
	assert.False(t, ok)
	assert.Equal(t, filepath.Join(wd, ".ralph", "config.json"), path)

	require.NoError(t, Save(Configuration{Output: wd}, wd, path))

	path, ok = Discover(wd)
	assert.True(t, ok)
	assert.Equal(t, DefaultPath(wd), path)
}

func TestWriteIgnoreFile(t *testing.T) {
	wd := t.TempDir()

	wrote, err := WriteIgnoreFile(wd)
	require.NoError(t, err)
	assert.True(t, wrote)

	data, err := os.ReadFile(filepath.Join(wd, DirName, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logs/\n")
	assert.Contains(t, string(data), AuthCacheFileName)

	require.NoError(t, os.WriteFile(filepath.Join(wd, DirName, ".gitignore"), []byte("custom\n"), 0o644))

	wrote, err = WriteIgnoreFile(wd)
	require.NoError(t, err)
	assert.False(t, wrote, "existing file is kept")

	data, err = os.ReadFile(filepath.Join(wd, DirName, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "custom\n", string(data))
}

func TestIgnoreFile_CoversToolState(t *testing.T) {
	var patterns []string
	for _, line := range strings.Split(strings.TrimSpace(ignoreFile), "\n") {
		if !strings.HasSuffix(line, "/") {
			patterns = append(patterns, line)
		}
	}

	ignored := func(name string) bool {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, name); ok {
				return true
			}
		}
		return false
	}

	for _, name := range []string{
		AppLogFileName,
		AppLogFileName + ".1",
		AuthCacheFileName,
		AuthCacheFileName + ".tmp",
		ConfigFileName + ".bak",
	} {
		assert.True(t, ignored(name), name)
	}
	assert.False(t, ignored(filepath.Base(DefaultPath(""))), "config file stays tracked")
	assert.Contains(t, ignoreFile, "logs/\n")
}
