package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records the git invocation and returns canned output.
type fakeRunner struct {
	output string
	err    error
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.args = args
	return f.output, f.err
}

func TestCommits_ParsesLogOutput(t *testing.T) {
	out := strings.Join([]string{
		"aaa111", "feat: first\n\nFixes: SSPORT-1\n",
		"bbb222", "fix: second\n",
	}, recordSep) + recordSep + "\n"

	runner := &fakeRunner{output: out}
	repo := New(runner)

	commits, err := repo.Commits(context.Background(), "main", "HEAD")
	require.NoError(t, err)

	require.Len(t, commits, 2)
	assert.Equal(t, "aaa111", commits[0].Hash)
	assert.Equal(t, "feat: first\n\nFixes: SSPORT-1", commits[0].Message)
	assert.Equal(t, "bbb222", commits[1].Hash)

	assert.Contains(t, runner.args, "main..HEAD")
	assert.Contains(t, runner.args, "--reverse")
}

func TestCommits_DefaultsToHead(t *testing.T) {
	runner := &fakeRunner{output: ""}
	repo := New(runner)

	commits, err := repo.Commits(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, commits)
	assert.Equal(t, "HEAD", runner.args[len(runner.args)-1])
}

func TestCommits_PropagatesRunnerError(t *testing.T) {
	runner := &fakeRunner{err: ErrNotARepository}
	repo := New(runner)

	_, err := repo.Commits(context.Background(), "", "HEAD")
	assert.ErrorIs(t, err, ErrNotARepository)
}

func TestInstallHook(t *testing.T) {
	gitDir := t.TempDir()
	runner := &fakeRunner{output: gitDir + "\n"}
	repo := New(runner)

	path, err := repo.InstallHook(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(gitDir, "hooks", "commit-msg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "commitcheck lint --file")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "hook must be executable")
}

func TestInstallHook_ExistingHook(t *testing.T) {
	gitDir := t.TempDir()
	hooksDir := filepath.Join(gitDir, "hooks")
	require.NoError(t, os.MkdirAll(hooksDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "commit-msg"), []byte("#!/bin/sh\n"), 0o755))

	repo := New(&fakeRunner{output: gitDir})

	_, err := repo.InstallHook(context.Background(), false)
	assert.ErrorIs(t, err, ErrHookExists)

	// force overwrites
	path, err := repo.InstallHook(context.Background(), true)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "commitcheck")
}
