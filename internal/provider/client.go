// Package provider implements LLM provider clients behind a minimal
// completion interface. All provider errors are wrapped as ProviderFailure
// so callers can degrade to heuristic paths uniformly.
package provider

import "context"

// LLMClient is the minimal interface for LLM completions.
type LLMClient interface {
	// Complete sends a prompt and returns the completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
