// Package todo manages the persisted TODO document the agent reads and
// rewrites between iterations.
package todo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the TODO document name inside the output directory.
const FileName = "TODO.md"

// Template is the initial TODO document. A document whose trimmed content
// equals the trimmed template is considered untouched.
const Template = `# Tasks
- [ ] Review the reference material and plan the work
---
# Notes
`

// State classifies a TODO document.
type State string

const (
	StateCreated State = "created"
	StateClean   State = "clean"
	StateDirty   State = "dirty"
)

// InProgress reports whether the document holds work from an earlier run.
func (s State) InProgress() bool {
	return s == StateDirty
}

// Path returns the TODO document location for outputDir.
func Path(outputDir string) string {
	return filepath.Join(outputDir, FileName)
}

// EnsureInitialized creates the TODO document from the template when it does
// not exist, otherwise classifies the existing document. The output directory
// is created when missing.
func EnsureInitialized(outputDir string) (State, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := Path(outputDir)
	state, err := Classify(path)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := Reset(path); err != nil {
		return "", err
	}
	return StateCreated, nil
}

// Classify compares the document at path with the template after trimming
// surrounding whitespace. This is a literal comparison: an edited document
// that nets out to the template text is reported clean.
func Classify(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read todo: %w", err)
	}
	if IsClean(string(data)) {
		return StateClean, nil
	}
	return StateDirty, nil
}

// IsClean reports whether content matches the template after trimming.
func IsClean(content string) bool {
	return strings.TrimSpace(content) == strings.TrimSpace(Template)
}

// Reset overwrites the document at path with the template.
func Reset(path string) error {
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("reset todo: %w", err)
	}
	return nil
}

// Write replaces the document at path with a template-shaped document whose
// task section lists tasks as pending items.
func Write(path string, tasks []string) error {
	var b strings.Builder
	b.WriteString("# Tasks\n")
	for _, task := range tasks {
		b.WriteString("- [ ] ")
		b.WriteString(task)
		b.WriteByte('\n')
	}
	b.WriteString("---\n# Notes\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write todo: %w", err)
	}
	return nil
}
