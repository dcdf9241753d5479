// Package generator turns generation inputs into prompts, calls the model and
// shapes its free-text replies into domain values. Every generator returns a
// usable value: when the model fails or answers in the wrong shape, a
// deterministic fallback is built instead and the Result says so.
package generator

import (
	"context"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"influencer-agent/internal/domain"
)

// LLMClient is the text-completion surface the generators depend on.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// Outcome tells callers how a Result was produced.
type Outcome int

const (
	// OutcomeGenerated means the model reply was used as-is.
	OutcomeGenerated Outcome = iota
	// OutcomeUnparsed means the model replied but not in the expected shape.
	OutcomeUnparsed
	// OutcomeFailed means the model call itself failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGenerated:
		return "generated"
	case OutcomeUnparsed:
		return "unparsed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Degraded reports whether the value came from a fallback.
func (o Outcome) Degraded() bool {
	return o != OutcomeGenerated
}

// Result carries a generated value and how it was obtained. Err holds the
// cause whenever Outcome is degraded.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func generated[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeGenerated}
}

func fallback[T any](v T, outcome Outcome, err error) Result[T] {
	return Result[T]{Value: v, Outcome: outcome, Err: err}
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
