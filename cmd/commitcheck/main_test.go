package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssport/commitcheck/pkg/linter"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if stdin != "" {
		root.SetIn(strings.NewReader(stdin))
	}
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "commitcheck")
}

func TestLint_MessagePasses(t *testing.T) {
	out, err := execute(t, "", "lint", "--message", "feat: add thing\n\nFixes: SSPORT-1")
	require.NoError(t, err)
	assert.Contains(t, out, "0 errors")
}

func TestLint_MessageFails(t *testing.T) {
	out, err := execute(t, "", "lint", "--message", "bad message")
	require.ErrorIs(t, err, errLintFailed)
	assert.Contains(t, out, "footer-ticket")
}

func TestLint_Stdin(t *testing.T) {
	_, err := execute(t, "fix: typo\n\nFixes: SSPORT-2\n", "lint", "--file", "-")
	require.NoError(t, err)
}

func TestLint_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	require.NoError(t, os.WriteFile(path, []byte("fix: typo\n\nFixes: SSPORT-3\n# comment\n"), 0o644))

	_, err := execute(t, "", "lint", "--file", path)
	require.NoError(t, err)
}

func TestLint_JSONFormat(t *testing.T) {
	out, err := execute(t, "", "lint", "--format", "json", "--message", "feat: add thing\n\nFixes: SSPORT-1")
	require.NoError(t, err)

	var report linter.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Zero(t, report.Errors)
}

func TestLint_UnknownFormat(t *testing.T) {
	_, err := execute(t, "", "lint", "--format", "yaml", "--message", "feat: x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errLintFailed)
}

func TestLint_NothingToLint(t *testing.T) {
	_, err := execute(t, "", "lint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to lint")
}

func TestLint_StrictTurnsWarningsIntoFailure(t *testing.T) {
	long := strings.Repeat("y", 120)
	msg := "feat: add thing\n\n" + long + "\n\nFixes: SSPORT-1"

	_, err := execute(t, "", "lint", "--message", msg)
	require.NoError(t, err)

	_, err = execute(t, "", "lint", "--strict", "--message", msg)
	require.ErrorIs(t, err, errLintFailed)
}

func TestLint_ExplicitConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rules:\n  ticket_prefixes: [SSPORT]\n"), 0o644))

	_, err := execute(t, "", "lint", "--config", cfgPath, "--message", "feat: x\n\nFixes: OTHER-1")
	require.ErrorIs(t, err, errLintFailed)

	_, err = execute(t, "", "lint", "--config", cfgPath, "--message", "feat: x\n\nFixes: SSPORT-1")
	require.NoError(t, err)
}

func TestLint_MissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "", "lint", "--config", "/does/not/exist.yaml", "--message", "feat: x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errLintFailed)
}
