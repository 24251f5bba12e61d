package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hay-kot/ralph/pkg/executil"
)

// Executor implements Git using the git command-line tool.
type Executor struct {
	gitPath string
	exec    executil.Executor
}

// NewExecutor creates a new git executor with the specified git binary path.
func NewExecutor(gitPath string, exec executil.Executor) *Executor {
	return &Executor{gitPath: gitPath, exec: exec}
}

func (e *Executor) IsRepo(ctx context.Context, dir string) bool {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}

func (e *Executor) StageAll(ctx context.Context, dir string) error {
	if out, err := e.exec.RunDir(ctx, dir, e.gitPath, "add", "-A"); err != nil {
		return fmt.Errorf("git add: %w", withOutput(err, out))
	}
	return nil
}

func (e *Executor) StagedStats(ctx context.Context, dir string) (additions, deletions int, err error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "diff", "--cached", "--shortstat")
	if err != nil {
		return 0, 0, fmt.Errorf("git diff: %w", err)
	}
	additions, deletions = parseShortStat(string(out))
	return additions, deletions, nil
}

func (e *Executor) Commit(ctx context.Context, dir, message string) error {
	if out, err := e.exec.RunDir(ctx, dir, e.gitPath, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", withOutput(err, out))
	}
	return nil
}

func (e *Executor) Branch(ctx context.Context, dir string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("git branch: %w", err)
	}

	branch := strings.TrimSpace(string(out))
	if branch != "" {
		return branch, nil
	}

	// detached HEAD
	out, err = e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// withOutput folds the last line of git's output into err so a swallowed
// failure still says why ("nothing to commit, working tree clean").
func withOutput(err error, out []byte) error {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, last)
}

// parseShortStat parses git diff --shortstat output.
// Example: " 3 files changed, 10 insertions(+), 5 deletions(-)"
func parseShortStat(output string) (additions, deletions int) {
	for part := range strings.SplitSeq(strings.TrimSpace(output), ",") {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(fields[1], "insertion"):
			additions = n
		case strings.HasPrefix(fields[1], "deletion"):
			deletions = n
		}
	}
	return additions, deletions
}
