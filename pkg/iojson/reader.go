package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when no file was given and stdin is a terminal.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use -f or pipe JSON input")

// FileReader decodes a T from the file named by its flag, or from stdin when
// the flag is unset or "-".
type FileReader[T any] struct {
	path string

	// Stdin replaces os.Stdin. Tests set it to skip the terminal check.
	Stdin io.Reader
}

// Flag returns the -f/--file flag bound to the reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON file (reads stdin when omitted or \"-\")",
		Destination: &fr.path,
	}
}

// Source names where Read takes its input from.
func (fr *FileReader[T]) Source() string {
	if fr.path == "" || fr.path == "-" {
		return "stdin"
	}
	return fr.path
}

// Read decodes one document. Unknown fields are rejected.
func (fr *FileReader[T]) Read() (T, error) {
	var v T

	r, closeFn, err := fr.open()
	if err != nil {
		return v, err
	}
	defer closeFn()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode %s: %w", fr.Source(), err)
	}
	return v, nil
}

func (fr *FileReader[T]) open() (io.Reader, func(), error) {
	if fr.path != "" && fr.path != "-" {
		f, err := os.Open(fr.path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	if fr.Stdin != nil {
		return fr.Stdin, func() {}, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, nil, ErrNoInput
	}
	return os.Stdin, func() {}, nil
}

// SetPath sets the input path without going through flag parsing.
func (fr *FileReader[T]) SetPath(path string) {
	fr.path = path
}
