package doctor

import (
	"context"
	"os/exec"

	"github.com/hay-kot/ralph/internal/core/git"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies the agent and git are installed and that the working
// directory can hold progress commits.
type ToolsCheck struct {
	agentCommand  string
	gitPath       string
	commitEnabled bool
	git           git.Git
	workDir       string
}

// NewToolsCheck creates a new tools check. g may be nil to skip the
// repository probe.
func NewToolsCheck(agentCommand, gitPath string, commitEnabled bool, g git.Git, workDir string) *ToolsCheck {
	return &ToolsCheck{
		agentCommand:  agentCommand,
		gitPath:       gitPath,
		commitEnabled: commitEnabled,
		git:           g,
		workDir:       workDir,
	}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if path, err := lookPathFunc(c.agentCommand); err != nil {
		result.add(c.agentCommand, StatusFail, "agent command not found on PATH")
	} else {
		result.add(c.agentCommand, StatusPass, path)
	}

	if !c.commitEnabled {
		result.add("git", StatusPass, "progress commits disabled")
		return result
	}

	// commit failures never stop the loop, so git problems are warnings
	path, err := lookPathFunc(c.gitPath)
	if err != nil {
		result.add("git", StatusWarn, "not found on PATH (progress commits will fail)")
		return result
	}
	result.add("git", StatusPass, path)

	if c.git != nil {
		if c.git.IsRepo(ctx, c.workDir) {
			detail := c.workDir
			if branch, err := c.git.Branch(ctx, c.workDir); err == nil && branch != "" {
				detail += " (" + branch + ")"
			}
			result.add("repository", StatusPass, detail)
		} else {
			result.add("repository", StatusWarn, "working directory is not a git repository (progress commits will fail)")
		}
	}

	return result
}
