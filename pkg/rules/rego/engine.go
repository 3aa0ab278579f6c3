// Package rego evaluates team-supplied Rego policies against parsed commit
// messages, so conventions beyond the builtin rules can be enforced without
// forking the linter.
package rego

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/ast"
	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/rego"

	"github.com/ssport/commitcheck/pkg/message"
	"github.com/ssport/commitcheck/pkg/rules"
)

const defaultEntrypoint = "commit/deny"

// Options control engine construction.
type Options struct {
	// Entrypoint is the decision path, default "commit/deny". The document
	// at that path must evaluate to a set or array of denial reasons; each
	// reason is either a string or an object with "message" and optional
	// "severity" keys.
	Entrypoint string
	// Modules maps module names (usually file paths) to Rego source.
	Modules map[string]string
}

// Engine holds compiled policies and a prepared query per entrypoint.
type Engine struct {
	moduleOrder   []string
	parsedModules map[string]*ast.Module
	entrypoint    string
	queries       map[string]*rego.PreparedEvalQuery
	mu            sync.RWMutex
}

// NewEngine parses and compiles the supplied modules. The default
// entrypoint is prepared eagerly so syntax errors surface at startup, not on
// the first commit.
func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	entry := strings.TrimSpace(opts.Entrypoint)
	if entry == "" {
		entry = defaultEntrypoint
	}
	if len(opts.Modules) == 0 {
		return nil, errors.New("rego engine requires at least one module")
	}

	moduleOrder := make([]string, 0, len(opts.Modules))
	for name := range opts.Modules {
		moduleOrder = append(moduleOrder, name)
	}
	sort.Strings(moduleOrder)

	parsed := make(map[string]*ast.Module, len(opts.Modules))
	for _, name := range moduleOrder {
		module, err := ast.ParseModuleWithOpts(name, opts.Modules[name], ast.ParserOptions{RegoVersion: ast.RegoV1})
		if err != nil {
			return nil, fmt.Errorf("parse rego module %q: %w", name, err)
		}
		parsed[name] = module
	}

	engine := &Engine{
		moduleOrder:   moduleOrder,
		parsedModules: parsed,
		entrypoint:    entry,
		queries:       make(map[string]*rego.PreparedEvalQuery),
	}

	if _, err := engine.preparedQuery(ctx, entry); err != nil {
		return nil, fmt.Errorf("compile rego modules: %w", err)
	}
	return engine, nil
}

// Name implements rules.Rule.
func (e *Engine) Name() string { return "rego-policy" }

// Check implements rules.Rule. Policy evaluation errors are reported as
// findings rather than aborting the whole lint run.
func (e *Engine) Check(ctx context.Context, msg *message.Message) []rules.Result {
	results, err := e.Evaluate(ctx, msg)
	if err != nil {
		return []rules.Result{{
			Rule:     e.Name(),
			Severity: rules.SeverityError,
			Message:  fmt.Sprintf("policy evaluation failed: %v", err),
		}}
	}
	return results
}

// Evaluate runs the entrypoint against the message and decodes the denial
// reasons into findings.
func (e *Engine) Evaluate(ctx context.Context, msg *message.Message) ([]rules.Result, error) {
	prepared, err := e.preparedQuery(ctx, e.entrypoint)
	if err != nil {
		return nil, fmt.Errorf("prepare query: %w", err)
	}

	rs, err := prepared.Eval(ctx, rego.EvalInput(inputPayload(msg)))
	if err != nil {
		return nil, fmt.Errorf("rego eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	reasons, ok := rs[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, fmt.Errorf("rego eval: entrypoint must produce a list, got %T", rs[0].Expressions[0].Value)
	}

	results := make([]rules.Result, 0, len(reasons))
	for _, reason := range reasons {
		result, err := decodeReason(e.Name(), reason)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) preparedQuery(ctx context.Context, entry string) (*rego.PreparedEvalQuery, error) {
	e.mu.RLock()
	if prepared, ok := e.queries[entry]; ok {
		e.mu.RUnlock()
		return prepared, nil
	}
	e.mu.RUnlock()

	opts := make([]func(*rego.Rego), 0, len(e.parsedModules)+1)
	opts = append(opts, rego.Query("data."+strings.ReplaceAll(entry, "/", ".")))
	for _, name := range e.moduleOrder {
		opts = append(opts, rego.ParsedModule(e.parsedModules[name]))
	}

	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.queries[entry]; ok {
		return existing, nil
	}
	e.queries[entry] = &prepared
	return &prepared, nil
}

func inputPayload(msg *message.Message) map[string]any {
	footers := make([]any, 0, len(msg.Footers))
	var tickets []string
	for _, footer := range msg.Footers {
		footers = append(footers, map[string]any{
			"key":   footer.Key,
			"value": footer.Value,
		})
	}
	if footer, ok := msg.Footer("fixes"); ok {
		tickets = message.Tickets(footer.Value)
	}

	return map[string]any{
		"header":   msg.Header,
		"type":     msg.Type,
		"scope":    msg.Scope,
		"breaking": msg.Breaking,
		"subject":  msg.Subject,
		"body":     strings.Join(msg.Body, "\n"),
		"footers":  footers,
		"tickets":  tickets,
	}
}

func decodeReason(rule string, reason any) (rules.Result, error) {
	switch typed := reason.(type) {
	case string:
		return rules.Result{Rule: rule, Severity: rules.SeverityError, Message: typed}, nil
	case map[string]any:
		text, _ := typed["message"].(string)
		if text == "" {
			return rules.Result{}, errors.New(`rego eval: denial object requires a "message" key`)
		}
		severity := rules.SeverityError
		if s, ok := typed["severity"].(string); ok && rules.Severity(s) == rules.SeverityWarning {
			severity = rules.SeverityWarning
		}
		return rules.Result{Rule: rule, Severity: severity, Message: text}, nil
	default:
		return rules.Result{}, fmt.Errorf("rego eval: unsupported denial type %T", reason)
	}
}
