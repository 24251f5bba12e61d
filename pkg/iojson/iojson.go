// Package iojson reads and writes JSON documents on behalf of CLI commands.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is written in place of a document that could not be encoded.
type Error struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// WriteWith writes obj as indented JSON to w. An encoding failure is reported
// as an Error document on ew and returned.
func WriteWith(w, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		fallback, _ := json.Marshal(Error{Message: "encode output", Detail: err.Error()})
		_, _ = fmt.Fprintln(ew, string(fallback))
		return fmt.Errorf("encode output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine writes obj as a single line of JSON.
func WriteLine(w io.Writer, obj any) error {
	return json.NewEncoder(w).Encode(obj)
}
