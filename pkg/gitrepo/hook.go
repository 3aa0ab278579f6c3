package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrHookExists is returned when a commit-msg hook is already installed and
// force was not requested.
var ErrHookExists = errors.New("commit-msg hook already exists")

// hookScript invokes the linter on the message buffer git hands the hook.
const hookScript = `#!/bin/sh
# installed by commitcheck
exec commitcheck lint --file "$1"
`

// InstallHook writes the commit-msg hook into the repository. An existing
// hook is only replaced when force is set.
func (r *Repo) InstallHook(ctx context.Context, force bool) (string, error) {
	gitDir, err := r.GitDir(ctx)
	if err != nil {
		return "", err
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", fmt.Errorf("create hooks directory: %w", err)
	}

	path := filepath.Join(hooksDir, "commit-msg")
	if _, err := os.Stat(path); err == nil && !force {
		return path, ErrHookExists
	}

	if err := os.WriteFile(path, []byte(hookScript), 0o755); err != nil {
		return "", fmt.Errorf("write hook: %w", err)
	}
	return path, nil
}
