// Package config handles the persisted loop configuration (reference and
// output directories) and the optional tool settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known locations under the working directory.
const (
	DirName           = ".ralph"
	ConfigFileName    = "config.json"
	SettingsFileName  = "settings.yaml"
	AuthCacheFileName = "auth.json"
	LogsDirName       = "logs"
	AppLogFileName    = "ralph.log"

	// DefaultOutput is the output directory offered on first run.
	DefaultOutput = "./ralph-output"
)

var (
	// ErrConfigNotFound is returned by Load when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrPathNotFound is returned by Validate when a reference directory is missing.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotDirectory is returned by Validate when a reference path is a file.
	ErrNotDirectory = errors.New("not a directory")
)

// Configuration is the in-memory form of the loop configuration. All paths
// are absolute.
type Configuration struct {
	Refs   []string
	Output string
}

// Stored is the on-disk JSON shape. Paths are relative to the working
// directory the file was saved from; "." is the working directory itself.
type Stored struct {
	Refs   []string `json:"refs"`
	Output string   `json:"output"`
}

// DefaultPath returns the config file location for workDir.
func DefaultPath(workDir string) string {
	return filepath.Join(workDir, DirName, ConfigFileName)
}

// SettingsPath returns the settings file location for workDir.
func SettingsPath(workDir string) string {
	return filepath.Join(workDir, DirName, SettingsFileName)
}

// LogsDir returns the session log directory for workDir.
func LogsDir(workDir string) string {
	return filepath.Join(workDir, DirName, LogsDirName)
}

// AppLogFile returns the default application log file for workDir.
func AppLogFile(workDir string) string {
	return filepath.Join(workDir, DirName, AppLogFileName)
}

// AuthCachePath returns the agent auth cache file for workDir.
func AuthCachePath(workDir string) string {
	return filepath.Join(workDir, DirName, AuthCacheFileName)
}

// Discover probes the well-known config location under workDir. A missing
// file is an expected first-run condition, reported as ok=false.
func Discover(workDir string) (string, bool) {
	path := DefaultPath(workDir)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}

// Load reads the config file at path and resolves it against workDir.
func Load(path, workDir string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Configuration{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Configuration{}, fmt.Errorf("read config file: %w", err)
	}

	var stored Stored
	if err := json.Unmarshal(data, &stored); err != nil {
		return Configuration{}, fmt.Errorf("parse config file: %w", err)
	}

	return Resolve(stored, workDir), nil
}

// Save writes cfg to path in stored form relative to workDir. Existing
// files are overwritten.
func Save(cfg Configuration, workDir, path string) error {
	stored := Stored{
		Refs:   make([]string, 0, len(cfg.Refs)),
		Output: ToStoredForm(cfg.Output, workDir),
	}
	for _, ref := range cfg.Refs {
		stored.Refs = append(stored.Refs, ToStoredForm(ref, workDir))
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ignoreFile keeps tool state out of the per-iteration progress commits.
// The trailing globs cover the rotated app log (ralph.log.1) and the
// temporary files written before an atomic rename.
const ignoreFile = `logs/
` + AppLogFileName + `*
` + AuthCacheFileName + `*
*.tmp
*.bak
`

// WriteIgnoreFile creates .ralph/.gitignore under workDir unless one exists.
// It reports whether the file was written.
func WriteIgnoreFile(workDir string) (bool, error) {
	path := filepath.Join(workDir, DirName, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(ignoreFile), 0o644); err != nil {
		return false, fmt.Errorf("write ignore file: %w", err)
	}
	return true, nil
}
