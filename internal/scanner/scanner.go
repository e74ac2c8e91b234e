// Package scanner resolves the list of files to check from git when none is
// given on the command line.
package scanner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Scanner lists files of the repository at root.
type Scanner struct {
	repoRoot string
}

// New creates a new Scanner for the given repository root.
func New(repoRoot string) *Scanner {
	return &Scanner{
		repoRoot: repoRoot,
	}
}

// TrackedFiles returns all files tracked by git.
// It respects .gitignore implicitly by asking git.
func (s *Scanner) TrackedFiles(ctx context.Context) ([]string, error) {
	return s.gitList(ctx, "ls-files", "-z")
}

// StagedFiles returns files added, copied or modified in the index, which is
// what a pre-commit gate is expected to look at.
func (s *Scanner) StagedFiles(ctx context.Context) ([]string, error) {
	return s.gitList(ctx, "diff", "--cached", "--name-only", "--diff-filter=ACM", "-z")
}

// Filtered applies opts to the output of list.
func (s *Scanner) Filtered(ctx context.Context, list func(context.Context) ([]string, error), opts FilterOptions) ([]string, error) {
	all, err := list(ctx)
	if err != nil {
		return nil, err
	}
	return FilterFiles(all, opts), nil
}

func (s *Scanner) gitList(ctx context.Context, args ...string) ([]string, error) {
	// -z to avoid escaping issues
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w", args[0], err)
	}

	trimmed := strings.TrimSuffix(string(out), "\x00")
	if trimmed == "" {
		return []string{}, nil
	}
	return strings.Split(trimmed, "\x00"), nil
}

// Toplevel returns the root of the git work tree containing dir.
func Toplevel(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Root returns the repository root the scanner lists files of.
func (s *Scanner) Root() string { return s.repoRoot }
