// Package gitops hands the finished working tree to git. Staging, commit,
// tag and push only; history-rewriting and conflict-resolution operations
// are out of scope for this tool.
package gitops

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitOps runs git against the working tree.
type GitOps struct {
	workingDir string
}

// New creates a GitOps instance rooted at workingDir.
func New(workingDir string) *GitOps {
	return &GitOps{workingDir: workingDir}
}

// CheckGitRepo checks that the working tree is inside a git repository.
func (g *GitOps) CheckGitRepo() error {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not a git repository: %s", g.workingDir)
	}
	return nil
}

// ChangedPaths returns the working-tree paths that differ from the last
// commit, parsed from porcelain status output.
func (g *GitOps) ChangedPaths() ([]string, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get git status: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(string(output), "\n") {
		if len(line) > 3 {
			paths = append(paths, strings.TrimSpace(line[3:]))
		}
	}
	return paths, nil
}

// AddAll stages every change in the working tree.
func (g *GitOps) AddAll() error {
	cmd := exec.Command("git", "add", "--all")
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	return nil
}

// Commit creates a commit with the given message.
func (g *GitOps) Commit(message string) error {
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

// Tag creates a lightweight tag at HEAD.
func (g *GitOps) Tag(name string) error {
	cmd := exec.Command("git", "tag", name)
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

// Push pushes the current branch, following tags when requested.
func (g *GitOps) Push(withTags bool) error {
	args := []string{"push"}
	if withTags {
		args = append(args, "--follow-tags")
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// GetBranchName returns the current branch name.
func (g *GitOps) GetBranchName() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
