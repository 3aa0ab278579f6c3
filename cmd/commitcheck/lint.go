package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssport/commitcheck/pkg/config"
	"github.com/ssport/commitcheck/pkg/gitrepo"
	"github.com/ssport/commitcheck/pkg/linter"
	"github.com/ssport/commitcheck/pkg/logging"
)

func newLintCmd() *cobra.Command {
	lintCmd := &cobra.Command{
		Use:   "lint",
		Short: "Lint commit messages",
		Long: `Lint a commit message from a file (--file, "-" for stdin), a literal
string (--message), or every commit in a revision range (--from/--to).`,
		RunE: runLint,
	}

	lintCmd.Flags().StringP("file", "f", "", `Path to a file holding the message ("-" for stdin)`)
	lintCmd.Flags().StringP("message", "m", "", "Literal commit message")
	lintCmd.Flags().String("from", "", "Lint commits after this revision (exclusive)")
	lintCmd.Flags().String("to", "HEAD", "Lint commits up to this revision")
	lintCmd.Flags().String("format", "text", "Report format (text, json)")
	lintCmd.Flags().Bool("strict", false, "Treat warnings as failures")

	return lintCmd
}

func runLint(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	literal, _ := cmd.Flags().GetString("message")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	logger := logging.NewLogger(logging.Config{Level: logLevel, Pretty: true})

	ctx := cmd.Context()
	l, err := linter.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	report, err := collectAndLint(ctx, cmd, l, file, literal, from, to)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		err = report.WriteJSON(out)
	} else {
		err = report.WriteText(out)
	}
	if err != nil {
		return err
	}

	if !report.OK(strict) {
		return errLintFailed
	}
	return nil
}

func collectAndLint(ctx context.Context, cmd *cobra.Command, l *linter.Linter, file, literal, from, to string) (*linter.Report, error) {
	switch {
	case literal != "":
		report := &linter.Report{}
		report.Append(l.Lint(ctx, "", literal))
		return report, nil

	case file == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		report := &linter.Report{}
		report.Append(l.Lint(ctx, "", string(raw)))
		return report, nil

	case file != "":
		return l.LintFile(ctx, file)

	case from != "":
		repo := gitrepo.New(nil)
		commits, err := repo.Commits(ctx, from, to)
		if err != nil {
			return nil, err
		}
		inputs := make([]linter.Input, 0, len(commits))
		for _, commit := range commits {
			inputs = append(inputs, linter.Input{ID: shortHash(commit.Hash), Raw: commit.Message})
		}
		return l.LintBatch(ctx, inputs), nil

	default:
		return nil, errors.New("nothing to lint: pass --file, --message, or --from")
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// resolveConfig loads the config file named by --config, falling back to
// .commitcheck.yaml in the working directory and then to built-in defaults.
// An explicitly named file must exist.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	explicit := path != ""
	if !explicit {
		path = config.DefaultFileName
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}

	loader, err := config.NewLoader(path)
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
