package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve converts every stored path into an absolute path by joining it
// with workDir. Absolute paths are kept. No validation is performed.
func Resolve(stored Stored, workDir string) Configuration {
	cfg := Configuration{
		Refs:   make([]string, 0, len(stored.Refs)),
		Output: resolvePath(stored.Output, workDir),
	}
	for _, ref := range stored.Refs {
		cfg.Refs = append(cfg.Refs, resolvePath(ref, workDir))
	}
	return cfg
}

func resolvePath(p, workDir string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workDir, p)
}

// ToStoredForm maps an absolute path back to the form written to disk.
// It returns "." exactly when abs is workDir, otherwise "./" followed by the
// path with the workDir prefix stripped. Paths outside workDir are returned
// unchanged.
func ToStoredForm(abs, workDir string) string {
	abs = filepath.Clean(abs)
	workDir = filepath.Clean(workDir)

	if abs == workDir {
		return "."
	}

	prefix := workDir + string(filepath.Separator)
	if workDir == string(filepath.Separator) {
		prefix = workDir
	}

	rel, ok := strings.CutPrefix(abs, prefix)
	if !ok {
		return abs
	}
	return "./" + filepath.ToSlash(rel)
}

// Validate checks that every reference path exists and is a directory, in
// order. The first bad path fails the whole configuration. The output
// directory is not required to exist.
func Validate(cfg Configuration) error {
	for _, ref := range cfg.Refs {
		info, err := os.Stat(ref)
		switch {
		case os.IsNotExist(err):
			return fmt.Errorf("reference directory %s: %w", ref, ErrPathNotFound)
		case err != nil:
			return fmt.Errorf("reference directory %s: %w", ref, err)
		case !info.IsDir():
			return fmt.Errorf("reference directory %s: %w", ref, ErrNotDirectory)
		}
	}
	return nil
}
