package rules

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ssport/commitcheck/pkg/message"
)

// DefaultTypes is the Conventional Commits type set the guidelines allow.
var DefaultTypes = []string{
	"feat", "fix", "docs", "style", "refactor",
	"perf", "test", "build", "ci", "chore", "revert",
}

const (
	// DefaultHeaderMaxLength mirrors the guideline's 72-column header limit.
	DefaultHeaderMaxLength = 72
	// DefaultBodyMaxLineLength mirrors the guideline's 100-column body limit.
	DefaultBodyMaxLineLength = 100
)

// TypeEnum requires a conventional header whose type is in the allowed set.
type TypeEnum struct {
	Types []string
}

func (TypeEnum) Name() string { return "type-enum" }

func (r TypeEnum) Check(_ context.Context, msg *message.Message) []Result {
	if !msg.Conventional {
		return []Result{{
			Rule:     "type-enum",
			Severity: SeverityError,
			Message:  `header must follow "type(scope): subject"`,
			Line:     1,
		}}
	}

	types := r.Types
	if len(types) == 0 {
		types = DefaultTypes
	}
	for _, t := range types {
		if msg.Type == t {
			return nil
		}
	}
	return []Result{{
		Rule:     "type-enum",
		Severity: SeverityError,
		Message:  fmt.Sprintf("type %q is not allowed, use one of: %s", msg.Type, strings.Join(types, ", ")),
		Line:     1,
	}}
}

// ScopeEnum restricts the header scope to a known set. An empty scope is
// handled by ScopeRequired, not here.
type ScopeEnum struct {
	Scopes []string
}

func (ScopeEnum) Name() string { return "scope-enum" }

func (r ScopeEnum) Check(_ context.Context, msg *message.Message) []Result {
	if len(r.Scopes) == 0 || !msg.Conventional || msg.Scope == "" {
		return nil
	}
	for _, s := range r.Scopes {
		if msg.Scope == s {
			return nil
		}
	}
	return []Result{{
		Rule:     "scope-enum",
		Severity: SeverityError,
		Message:  fmt.Sprintf("scope %q is not allowed, use one of: %s", msg.Scope, strings.Join(r.Scopes, ", ")),
		Line:     1,
	}}
}

// ScopeRequired requires a non-empty scope in the header.
type ScopeRequired struct{}

func (ScopeRequired) Name() string { return "scope-required" }

func (ScopeRequired) Check(_ context.Context, msg *message.Message) []Result {
	if !msg.Conventional || msg.Scope != "" {
		return nil
	}
	return []Result{{
		Rule:     "scope-required",
		Severity: SeverityError,
		Message:  "header must include a scope",
		Line:     1,
	}}
}

// SubjectEmpty requires a non-empty subject.
type SubjectEmpty struct{}

func (SubjectEmpty) Name() string { return "subject-empty" }

func (SubjectEmpty) Check(_ context.Context, msg *message.Message) []Result {
	if !msg.Conventional {
		return nil // type-enum already reports the malformed header
	}
	if strings.TrimSpace(msg.Subject) != "" {
		return nil
	}
	return []Result{{
		Rule:     "subject-empty",
		Severity: SeverityError,
		Message:  "subject must not be empty",
		Line:     1,
	}}
}

// SubjectCase requires the subject to start lower-case, the convention's
// "sentence fragment" style.
type SubjectCase struct{}

func (SubjectCase) Name() string { return "subject-case" }

func (SubjectCase) Check(_ context.Context, msg *message.Message) []Result {
	if !msg.Conventional || msg.Subject == "" {
		return nil
	}
	first := []rune(msg.Subject)[0]
	if !unicode.IsUpper(first) {
		return nil
	}
	return []Result{{
		Rule:     "subject-case",
		Severity: SeverityError,
		Message:  "subject must start with a lower-case letter",
		Line:     1,
	}}
}

// SubjectFullStop forbids a trailing period on the subject.
type SubjectFullStop struct{}

func (SubjectFullStop) Name() string { return "subject-full-stop" }

func (SubjectFullStop) Check(_ context.Context, msg *message.Message) []Result {
	if !msg.Conventional || !strings.HasSuffix(msg.Subject, ".") {
		return nil
	}
	return []Result{{
		Rule:     "subject-full-stop",
		Severity: SeverityError,
		Message:  "subject must not end with a period",
		Line:     1,
	}}
}

// HeaderMaxLength bounds the header length.
type HeaderMaxLength struct {
	Max int
}

func (HeaderMaxLength) Name() string { return "header-max-length" }

func (r HeaderMaxLength) Check(_ context.Context, msg *message.Message) []Result {
	max := r.Max
	if max <= 0 {
		max = DefaultHeaderMaxLength
	}
	if len([]rune(msg.Header)) <= max {
		return nil
	}
	return []Result{{
		Rule:     "header-max-length",
		Severity: SeverityError,
		Message:  fmt.Sprintf("header is %d characters, limit is %d", len([]rune(msg.Header)), max),
		Line:     1,
	}}
}

// BodyMaxLineLength bounds body line length. Lines containing a URL are
// exempt, long links cannot be wrapped.
type BodyMaxLineLength struct {
	Max int
}

func (BodyMaxLineLength) Name() string { return "body-max-line-length" }

func (r BodyMaxLineLength) Check(_ context.Context, msg *message.Message) []Result {
	max := r.Max
	if max <= 0 {
		max = DefaultBodyMaxLineLength
	}

	var results []Result
	for i, line := range msg.Body {
		if len([]rune(line)) <= max {
			continue
		}
		if strings.Contains(line, "://") {
			continue
		}
		results = append(results, Result{
			Rule:     "body-max-line-length",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("body line is %d characters, limit is %d", len([]rune(line)), max),
			Line:     msg.BodyStart + i,
		})
	}
	return results
}
