// Package main is the entry point for the commitcheck binary: a commit
// message linter usable as a commit-msg hook, a CI step over a revision
// range, or a small lint service.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

// errLintFailed signals a lint failure that has already been reported on
// stdout; main translates it into exit code 1 without re-printing.
var errLintFailed = errors.New("lint failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errLintFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "commitcheck",
		Short: "Commit message convention linter",
		Long: `commitcheck enforces the commit-message convention: a Conventional
Commits header and a ticket-reference footer.

Example:
  commitcheck lint --message "feat(auth): add session refresh" --strict
  commitcheck lint --from origin/main --to HEAD
  git commit ...   # via the commit-msg hook, see "commitcheck hook install"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default .commitcheck.yaml if present)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newHookCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the commitcheck version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "commitcheck "+version)
		},
	}
}
