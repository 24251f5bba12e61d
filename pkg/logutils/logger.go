// Package logutils builds the application logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// MaxFileSize is the size past which the log file is rotated when it is
// opened. One previous generation is kept as <file>.1.
const MaxFileSize = 10 << 20

// New returns a logger at level. With a file, events are appended to it as
// JSON; without one, human readable output goes to stderr. The returned
// closer releases the file.
func New(level string, file string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, func() {}, fmt.Errorf("parse log level: %w", err)
	}

	if file == "" {
		return build(zerolog.ConsoleWriter{Out: os.Stderr}, lvl), func() {}, nil
	}

	f, err := openLogFile(file, MaxFileSize)
	if err != nil {
		return zerolog.Logger{}, func() {}, err
	}
	return build(f, lvl), func() { _ = f.Close() }, nil
}

func build(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// openLogFile opens file for appending, creating its directory. A file
// already larger than maxSize is moved to file+".1" first.
func openLogFile(file string, maxSize int64) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	if info, err := os.Stat(file); err == nil && info.Size() > maxSize {
		if err := os.Rename(file, file+".1"); err != nil {
			return nil, fmt.Errorf("rotate log file: %w", err)
		}
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
