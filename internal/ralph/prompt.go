package ralph

import (
	"fmt"

	"github.com/hay-kot/ralph/internal/core/config"
	"github.com/hay-kot/ralph/pkg/tmpl"
)

// DefaultPrompt is the instruction template sent to the agent on every
// iteration. It can be replaced through the prompt setting.
const DefaultPrompt = `You are one iteration of a long-running loop. Every iteration receives this
same prompt; everything you learn must be written to files so the next
iteration can pick it up.

Reference directories (read-only context):
{{ if .Refs }}{{ bullets .Refs }}{{ else }}none{{ end }}

Output directory: {{ .Output }}
Task list: {{ .TodoPath }}

1. Read the task list. Tasks are under "# Tasks"; notes from earlier
   iterations are under "# Notes".
2. If the task list only holds the initial planning task, study the
   reference material and replace it with a concrete, ordered task list.
3. Pick the first unchecked task and complete it. Write all work into the
   output directory.
4. Mark the task done ("- [x]") and record anything the next iteration needs
   to know under "# Notes".
5. When every task is done and the work is complete, print exactly
   <promise>COMPLETE</promise>
   Do not print it under any other circumstances.
`

// BuildPrompt renders the instruction template for cfg. The result depends
// only on its inputs so every iteration receives the same prompt.
func BuildPrompt(template string, cfg config.Configuration, todoPath string) (string, error) {
	if template == "" {
		template = DefaultPrompt
	}

	out, err := tmpl.Render(template, config.PromptTemplateData{
		Refs:     cfg.Refs,
		Output:   cfg.Output,
		TodoPath: todoPath,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}
