package linter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ssport/commitcheck/pkg/rules"
)

// MessageReport holds the findings for one commit message.
type MessageReport struct {
	// ID labels the message: a commit hash, file name, or empty for stdin.
	ID     string `json:"id,omitempty"`
	Header string `json:"header,omitempty"`
	// Results is empty when the message passes every rule.
	Results []rules.Result `json:"results,omitempty"`
}

// OK reports whether the message produced no errors. Warnings do not fail a
// message unless the caller opts into strict mode.
func (m MessageReport) OK(strict bool) bool {
	for _, result := range m.Results {
		if result.Severity == rules.SeverityError {
			return false
		}
		if strict && result.Severity == rules.SeverityWarning {
			return false
		}
	}
	return true
}

// Report aggregates findings across a batch of messages.
type Report struct {
	Messages []MessageReport `json:"messages"`
	Errors   int             `json:"errors"`
	Warnings int             `json:"warnings"`
}

// Append adds a message report and updates the counters.
func (r *Report) Append(mr MessageReport) {
	r.Messages = append(r.Messages, mr)
	for _, result := range mr.Results {
		switch result.Severity {
		case rules.SeverityError:
			r.Errors++
		case rules.SeverityWarning:
			r.Warnings++
		}
	}
}

// OK reports whether the whole batch passes.
func (r *Report) OK(strict bool) bool {
	if r.Errors > 0 {
		return false
	}
	if strict && r.Warnings > 0 {
		return false
	}
	return true
}

// WriteJSON renders the report as a single JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText renders a human-readable report, one block per failing message.
// Passing messages are omitted.
func (r *Report) WriteText(w io.Writer) error {
	for _, mr := range r.Messages {
		if len(mr.Results) == 0 {
			continue
		}
		label := mr.ID
		if label == "" {
			label = mr.Header
		}
		if _, err := fmt.Fprintf(w, "%s\n", label); err != nil {
			return err
		}
		for _, result := range mr.Results {
			where := ""
			if result.Line > 0 {
				where = fmt.Sprintf(" (line %d)", result.Line)
			}
			if _, err := fmt.Fprintf(w, "  %s %s: %s%s\n", result.Severity, result.Rule, result.Message, where); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d messages checked, %d errors, %d warnings\n", len(r.Messages), r.Errors, r.Warnings)
	return err
}
