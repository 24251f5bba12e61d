// Package git wraps the git operations the loop uses to checkpoint agent
// progress.
package git

import "context"

// Git defines the git operations needed by ralph.
type Git interface {
	// IsRepo reports whether dir is inside a git work tree.
	IsRepo(ctx context.Context, dir string) bool
	// StageAll stages every change in dir, including untracked files.
	StageAll(ctx context.Context, dir string) error
	// StagedStats returns line counts for the staged changes in dir.
	StagedStats(ctx context.Context, dir string) (additions, deletions int, err error)
	// Commit records the staged changes in dir with message.
	Commit(ctx context.Context, dir, message string) error
	// Branch returns the current branch name, or short commit SHA if in detached HEAD state.
	Branch(ctx context.Context, dir string) (string, error)
}
