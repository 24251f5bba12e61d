// Package tmpl renders the text/template strings used for the agent prompt,
// the progress commit message and the planning prompt.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Funcs is the function set installed on every template.
//
//	join    join .Refs ", "
//	bullets markdown list, one "- item" per line
//	default .Name | default "none"
//	trim    strip surrounding whitespace
//	plural  plural .Done "task" -> "1 task" / "3 tasks"
var Funcs = template.FuncMap{
	"join":    strings.Join,
	"bullets": bullets,
	"default": orDefault,
	"trim":    strings.TrimSpace,
	"plural":  plural,
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func orDefault(def, s string) string {
	if s == "" {
		return def
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Parse compiles text with Funcs installed. Undefined keys fail at execution.
func Parse(text string) (*template.Template, error) {
	t, err := template.New("tmpl").
		Option("missingkey=error").
		Funcs(Funcs).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Render parses text and executes it against data.
func Render(text string, data any) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := t.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out.String(), nil
}
