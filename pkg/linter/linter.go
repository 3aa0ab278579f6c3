// Package linter wires the parser, the builtin rule chain, and optional
// Rego policies into a single entry point shared by the CLI, the hook, and
// the lint service.
package linter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ssport/commitcheck/pkg/config"
	"github.com/ssport/commitcheck/pkg/message"
	"github.com/ssport/commitcheck/pkg/rules"
	"github.com/ssport/commitcheck/pkg/rules/rego"
)

// Linter checks commit messages against a configured rule set. It is
// immutable after construction; serve mode swaps whole Linter instances on
// config reload.
type Linter struct {
	chain  rules.Chain
	logger *slog.Logger
}

// New builds a Linter from configuration. Rego policy files referenced by
// the config are loaded and compiled here so a broken policy fails fast.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Linter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var ruleSet []rules.Rule
	add := func(rule rules.Rule) {
		if !cfg.DisabledRule(rule.Name()) {
			ruleSet = append(ruleSet, rule)
		}
	}

	add(rules.TypeEnum{Types: cfg.Rules.Types})
	add(rules.ScopeEnum{Scopes: cfg.Rules.Scopes})
	if cfg.Rules.ScopeRequired {
		add(rules.ScopeRequired{})
	}
	add(rules.SubjectEmpty{})
	add(rules.SubjectCase{})
	add(rules.SubjectFullStop{})
	add(rules.HeaderMaxLength{Max: cfg.Rules.HeaderMaxLength})
	add(rules.BodyMaxLineLength{Max: cfg.Rules.BodyMaxLineLength})
	add(rules.FooterTicket{})
	add(rules.TicketPrefix{Prefixes: cfg.Rules.TicketPrefixes})

	if len(cfg.Policies) > 0 && !cfg.DisabledRule("rego-policy") {
		modules, err := loadPolicyModules(cfg.Policies)
		if err != nil {
			return nil, err
		}
		if len(modules) > 0 {
			engine, err := rego.NewEngine(ctx, rego.Options{Modules: modules})
			if err != nil {
				return nil, err
			}
			ruleSet = append(ruleSet, engine)
			logger.Debug("loaded rego policies", "modules", len(modules))
		}
	}

	return &Linter{
		chain:  rules.NewChain(ruleSet...),
		logger: logger,
	}, nil
}

// Lint checks a single raw commit message. The id labels the message in the
// report (a commit hash, a file name, or empty for stdin).
func (l *Linter) Lint(ctx context.Context, id, raw string) MessageReport {
	report := MessageReport{ID: id}

	msg, err := message.Parse(raw)
	if err != nil {
		report.Results = []rules.Result{{
			Rule:     "parse",
			Severity: rules.SeverityError,
			Message:  err.Error(),
		}}
		return report
	}

	report.Header = msg.Header
	report.Results = l.chain.Check(ctx, msg)
	return report
}

// LintBatch checks messages in order and aggregates the findings.
func (l *Linter) LintBatch(ctx context.Context, inputs []Input) *Report {
	report := &Report{}
	for _, input := range inputs {
		mr := l.Lint(ctx, input.ID, input.Raw)
		report.Append(mr)
	}
	return report
}

// LintFile checks the message stored in a file, the commit-msg hook entry
// point. Comment lines are stripped by the parser.
func (l *Linter) LintFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	report := &Report{}
	report.Append(l.Lint(ctx, filepath.Base(path), string(data)))
	return report, nil
}

// Input is one message in a batch.
type Input struct {
	ID  string `json:"id"`
	Raw string `json:"message"`
}

func loadPolicyModules(globs []string) (map[string]string, error) {
	modules := make(map[string]string)
	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad policy glob %q: %w", pattern, err)
		}
		for _, path := range matches {
			src, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read policy %q: %w", path, err)
			}
			modules[path] = string(src)
		}
	}
	return modules, nil
}
