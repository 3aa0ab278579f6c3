package rego

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssport/commitcheck/pkg/message"
	"github.com/ssport/commitcheck/pkg/rules"
)

const denyRevertsPolicy = `package commit

deny contains msg if {
	input.type == "revert"
	msg := "reverts must go through the incident process"
}

deny contains msg if {
	input.breaking
	not has_breaking_footer
	msg := "breaking changes need a BREAKING CHANGE footer"
}

has_breaking_footer if {
	some footer in input.footers
	footer.key == "BREAKING CHANGE"
}
`

func TestNewEngine_CompileErrorSurfacesEarly(t *testing.T) {
	_, err := NewEngine(context.Background(), Options{
		Modules: map[string]string{"bad.rego": "package commit\n\ndeny contains if {"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.rego")
}

func TestNewEngine_RequiresModules(t *testing.T) {
	_, err := NewEngine(context.Background(), Options{})
	require.Error(t, err)
}

func TestEvaluate_DenyReasons(t *testing.T) {
	engine, err := NewEngine(context.Background(), Options{
		Modules: map[string]string{"policy.rego": denyRevertsPolicy},
	})
	require.NoError(t, err)

	msg := parse(t, "revert: undo the release\n\nFixes: SSPORT-1")
	results, err := engine.Evaluate(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rego-policy", results[0].Rule)
	assert.Equal(t, rules.SeverityError, results[0].Severity)
	assert.Contains(t, results[0].Message, "incident process")
}

func TestEvaluate_AllowedMessage(t *testing.T) {
	engine, err := NewEngine(context.Background(), Options{
		Modules: map[string]string{"policy.rego": denyRevertsPolicy},
	})
	require.NoError(t, err)

	msg := parse(t, "feat(auth)!: drop legacy login\n\nBREAKING CHANGE: legacy login removed")
	results, err := engine.Evaluate(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCheck_ReportsEvalFailureAsFinding(t *testing.T) {
	engine, err := NewEngine(context.Background(), Options{
		Entrypoint: "commit/deny",
		Modules: map[string]string{
			// deny is a string, not a collection: Evaluate rejects the shape
			"policy.rego": "package commit\n\ndeny := \"oops\" if { true }",
		},
	})
	require.NoError(t, err)

	results := engine.Check(context.Background(), parse(t, "feat: x"))
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Message, "policy evaluation failed")
}

func parse(t *testing.T, raw string) *message.Message {
	t.Helper()
	msg, err := message.Parse(raw)
	require.NoError(t, err)
	return msg
}
