package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssport/commitcheck/pkg/gitrepo"
)

func newHookCmd() *cobra.Command {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the git commit-msg hook",
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the commit-msg hook into the current repository",
		RunE:  runHookInstall,
	}
	installCmd.Flags().Bool("force", false, "Replace an existing commit-msg hook")

	hookCmd.AddCommand(installCmd)
	return hookCmd
}

func runHookInstall(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	repo := gitrepo.New(nil)
	path, err := repo.InstallHook(cmd.Context(), force)
	if err != nil {
		if errors.Is(err, gitrepo.ErrHookExists) {
			return fmt.Errorf("%w at %s (use --force to replace it)", err, path)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed commit-msg hook at %s\n", path)
	return nil
}
