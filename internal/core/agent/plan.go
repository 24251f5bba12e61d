package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/ralph/internal/core/todo"
	"github.com/hay-kot/ralph/pkg/tmpl"
)

// ErrNoTasks is returned when the agent's answer contains no task lines.
var ErrNoTasks = errors.New("agent returned no tasks")

const planTemplate = `Break the following goal into a short, ordered list of concrete tasks.
Answer with a markdown bullet list, one task per line, each line starting with "- ".
Do not add any other text.

Goal: {{ .Goal }}
`

// Planner turns a goal into the task section of the TODO document.
type Planner struct {
	agent   Agent
	dir     string
	timeout time.Duration
}

// NewPlanner creates a Planner running in dir, bounded by timeout.
func NewPlanner(a Agent, dir string, timeout time.Duration) *Planner {
	return &Planner{agent: a, dir: dir, timeout: timeout}
}

// Plan asks the agent for tasks and writes them to the TODO document at
// todoPath. The tasks written are returned.
func (p *Planner) Plan(ctx context.Context, goal, todoPath string) ([]string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, errors.New("goal is required")
	}

	prompt, err := tmpl.Render(planTemplate, map[string]string{"Goal": goal})
	if err != nil {
		return nil, fmt.Errorf("render plan prompt: %w", err)
	}

	res, err := RunBounded(ctx, p.agent, Request{Dir: p.dir, Prompt: prompt}, p.timeout)
	if err != nil {
		return nil, fmt.Errorf("generate tasks: %w", err)
	}

	tasks := ExtractTasks(res.Output)
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	if err := todo.Write(todoPath, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ExtractTasks returns the text of every "- " bullet line in output. A
// leading checkbox is dropped.
func ExtractTasks(output string) []string {
	var tasks []string
	for line := range strings.SplitSeq(output, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}
		for _, box := range []string{"[ ] ", "[x] ", "[X] "} {
			rest = strings.TrimPrefix(rest, box)
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			tasks = append(tasks, rest)
		}
	}
	return tasks
}
