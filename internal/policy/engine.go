// Package policy evaluates the off-topic question gate with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by Evaluate.
const (
	DecisionAllow  = "allow"
	DecisionRefuse = "refuse"
)

// Engine is the OPA policy engine for the off-topic question gate.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_gate.decision"),
		rego.Module("chat_gate.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate decides whether the question may be answered from the document.
// It returns DecisionRefuse when the question contains a generic off-topic
// phrase that does not also occur in the document text, DecisionAllow
// otherwise. This gate looks at the question, not the answer; it is
// intentionally redundant with the pipeline's lexical grounding score.
func (e *Engine) Evaluate(ctx context.Context, question, documentText string) (string, error) {
	input := map[string]interface{}{
		"question": question,
		"document": documentText,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionAllow, nil
}

// DefaultPolicy refuses questions that contain a generic off-topic phrase
// unless the document itself mentions the phrase. A document discussing
// "climate" does not whitelist a "weather" question: that false-refusal is
// a known property of the phrase list, kept as-is.
const DefaultPolicy = `package chat_gate

import rego.v1

default decision := "allow"

off_topic_phrases := [
	"weather",
	"current date",
	"who is the president",
	"latest news",
	"recipe for",
	"how to make",
	"movie recommendation",
	"song lyrics",
	"sports score",
	"stock price",
]

decision := "refuse" if {
	some phrase in off_topic_phrases
	contains(lower(input.question), phrase)
	not contains(lower(input.document), phrase)
}
`
