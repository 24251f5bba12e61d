// Package sessionlog writes the append-only, human readable record of a
// loop session: a header block followed by one block per iteration.
package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileTimeLayout = "20060102-150405"

// Header describes the session written at the top of the log.
type Header struct {
	SessionID string
	StartedAt time.Time
	WorkDir   string
	Branch    string // empty when unknown or not a repository
	OutputDir string
	Refs      []string
	TodoPath  string
	TodoState string
}

// Log is an open session log file. Every write goes straight to the file in
// call order.
type Log struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// FileName returns the log file name for a session started at now.
func FileName(now time.Time) string {
	return "session-" + now.Format(fileTimeLayout) + ".log"
}

// Open creates dir if needed and opens the session log for a session started
// at now.
func Open(dir string, now time.Time) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	return &Log{path: path, f: f}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// WriteHeader writes the session header block.
func (l *Log) WriteHeader(h Header) error {
	refs := "(none)"
	if len(h.Refs) > 0 {
		refs = strings.Join(h.Refs, ", ")
	}

	var b strings.Builder
	b.WriteString("=== ralph session ===\n")
	fmt.Fprintf(&b, "session:  %s\n", h.SessionID)
	fmt.Fprintf(&b, "started:  %s\n", h.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "workdir:  %s\n", h.WorkDir)
	if h.Branch != "" {
		fmt.Fprintf(&b, "branch:   %s\n", h.Branch)
	}
	fmt.Fprintf(&b, "output:   %s\n", h.OutputDir)
	fmt.Fprintf(&b, "refs:     %s\n", refs)
	fmt.Fprintf(&b, "todo:     %s (%s)\n", h.TodoPath, h.TodoState)
	b.WriteString("=====================\n\n")

	return l.write(b.String())
}

// AppendIteration records iteration n with its exit code and the full
// captured agent output.
func (l *Log) AppendIteration(n, exitCode int, output string, at time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] iteration %d (exit %d)\n", at.Format(time.RFC3339), n, exitCode)
	b.WriteString(output)
	if !strings.HasSuffix(output, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	return l.write(b.String())
}

// Note appends a single timestamped line.
func (l *Log) Note(msg string, at time.Time) error {
	return l.write(fmt.Sprintf("[%s] %s\n", at.Format(time.RFC3339), msg))
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func (l *Log) write(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.f.WriteString(s); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}
