// Package llm provides the narrow language-model capability the insight
// pipeline depends on, plus the Anthropic implementation.
package llm

import "context"

// Oracle is a single request/response language-model call. Responses are
// free text; callers must tolerate commentary around any JSON they asked
// for.
type Oracle interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Func adapts a plain function to the Oracle interface. Used by tests to
// drive the pipeline deterministically.
type Func func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}
