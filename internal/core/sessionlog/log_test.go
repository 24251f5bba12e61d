package sessionlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var started = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func readLog(t *testing.T, l *Log) string {
	t.Helper()
	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	return string(data)
}

func TestOpen_CreatesDirAndNamedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".ralph", "logs")

	l, err := Open(dir, started)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	assert.Equal(t, filepath.Join(dir, "session-20250314-092653.log"), l.Path())
	assert.FileExists(t, l.Path())
}

func TestLog_HeaderAndIterations(t *testing.T) {
	l, err := Open(t.TempDir(), started)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	require.NoError(t, l.WriteHeader(Header{
		SessionID: "0f8e",
		StartedAt: started,
		WorkDir:   "/work",
		Branch:    "main",
		OutputDir: "/work/out",
		Refs:      []string{"/work/a", "/work/b"},
		TodoPath:  "/work/out/TODO.md",
		TodoState: "created",
	}))
	require.NoError(t, l.AppendIteration(1, 0, "did things", started.Add(time.Minute)))
	require.NoError(t, l.Note("commit failed: nothing to commit", started.Add(2*time.Minute)))
	require.NoError(t, l.AppendIteration(2, 3, "more\n", started.Add(3*time.Minute)))

	want := `=== ralph session ===
session:  0f8e
started:  2025-03-14T09:26:53Z
workdir:  /work
branch:   main
output:   /work/out
refs:     /work/a, /work/b
todo:     /work/out/TODO.md (created)
=====================

[2025-03-14T09:27:53Z] iteration 1 (exit 0)
did things

[2025-03-14T09:28:53Z] commit failed: nothing to commit
[2025-03-14T09:29:53Z] iteration 2 (exit 3)
more

`
	assert.Equal(t, want, readLog(t, l))
}

func TestLog_HeaderWithoutRefs(t *testing.T) {
	l, err := Open(t.TempDir(), started)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	require.NoError(t, l.WriteHeader(Header{SessionID: "x", StartedAt: started}))
	got := readLog(t, l)
	assert.Contains(t, got, "refs:     (none)\n")
	assert.NotContains(t, got, "branch:")
}

func TestOpen_AppendsToExisting(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, started)
	require.NoError(t, err)
	require.NoError(t, first.Note("one", started))
	require.NoError(t, first.Close())

	second, err := Open(dir, started)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.Note("two", started))

	assert.Equal(t,
		"[2025-03-14T09:26:53Z] one\n[2025-03-14T09:26:53Z] two\n",
		readLog(t, second),
	)
}
