// Package gitrepo is the minimal git plumbing the linter needs: reading
// commit messages for a revision range and installing the commit-msg hook.
// It shells out to the git binary rather than reimplementing the object
// store.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotARepository is returned when the working directory is not inside a
// git work tree.
var ErrNotARepository = errors.New("not a git repository")

// Commit is one commit's hash and full message.
type Commit struct {
	Hash    string
	Message string
}

// Runner executes a git command and returns its stdout. Tests substitute a
// fake; production code uses ExecRunner.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner invokes the git binary.
type ExecRunner struct {
	// Dir is the working directory for git, empty for the current one.
	Dir string
}

// Run executes git with the given arguments.
func (r ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return "", ErrNotARepository
		}
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), msg, err)
	}
	return stdout.String(), nil
}

// Repo exposes the git operations the linter uses.
type Repo struct {
	runner Runner
}

// New creates a Repo over the given runner. A nil runner selects ExecRunner
// in the current directory.
func New(runner Runner) *Repo {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Repo{runner: runner}
}

// recordSep separates fields in git log output. NUL cannot appear in commit
// messages, so splitting on it is unambiguous.
const recordSep = "\x00"

// Commits returns hash and message for every commit in from..to, oldest
// first. An empty from lints everything reachable from to.
func (r *Repo) Commits(ctx context.Context, from, to string) ([]Commit, error) {
	if to == "" {
		to = "HEAD"
	}
	rangeArg := to
	if from != "" {
		rangeArg = from + ".." + to
	}

	out, err := r.runner.Run(ctx, "log", "--reverse", "--format=%H"+recordSep+"%B"+recordSep, rangeArg)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	fields := strings.Split(out, recordSep)
	// fields come in (hash, message) pairs with a trailing newline remnant
	for i := 0; i+1 < len(fields); i += 2 {
		hash := strings.TrimSpace(fields[i])
		if hash == "" {
			continue
		}
		commits = append(commits, Commit{
			Hash:    hash,
			Message: strings.TrimRight(fields[i+1], "\n"),
		})
	}
	return commits, nil
}

// GitDir returns the repository's .git directory.
func (r *Repo) GitDir(ctx context.Context) (string, error) {
	out, err := r.runner.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
