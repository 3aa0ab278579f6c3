// Package rules defines the lint rule contract and the builtin rules that
// enforce the commit-message convention: a Conventional Commits header and a
// ticket-reference footer.
package rules

import (
	"context"

	"github.com/ssport/commitcheck/pkg/message"
)

// Severity classifies a rule result.
type Severity string

const (
	// SeverityError fails the check.
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not fail the check.
	SeverityWarning Severity = "warning"
)

// Result is a single finding produced by a rule.
type Result struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Line is the 1-based line the finding refers to, zero when the finding
	// applies to the message as a whole.
	Line int `json:"line,omitempty"`
}

// Rule inspects a parsed commit message and reports findings. A rule that
// finds nothing wrong returns an empty slice.
type Rule interface {
	Name() string
	Check(ctx context.Context, msg *message.Message) []Result
}

// Chain runs every rule and collects all findings. Unlike an enforcement
// proxy, a linter never short-circuits: the author should see everything
// wrong with the message in one pass.
type Chain struct {
	rules []Rule
}

// NewChain constructs a chain over the given rules.
func NewChain(rules ...Rule) Chain {
	return Chain{rules: append([]Rule(nil), rules...)}
}

// Check evaluates all rules against the message.
func (c Chain) Check(ctx context.Context, msg *message.Message) []Result {
	var results []Result
	for _, rule := range c.rules {
		if err := ctx.Err(); err != nil {
			return results
		}
		results = append(results, rule.Check(ctx, msg)...)
	}
	return results
}

// Rules returns the rule set in evaluation order.
func (c Chain) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
