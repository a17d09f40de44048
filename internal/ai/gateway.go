package ai

import "context"

// Generator sends a composed prompt to the upstream model and returns raw
// text. Implementations own their retry behavior; a terminal failure is a
// *GenerationError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError is the caller-facing failure after the retry budget is
// exhausted (or a non-retryable upstream error). The upstream cause is kept
// for logs but never shown to clients.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return "ai: failed to generate a response"
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
