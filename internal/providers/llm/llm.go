package llm

import "context"

// Provider is the language-generation collaborator. Calls may fail or time
// out; callers own the fallback policy and must never surface a raw provider
// error to the interview loop.
type Provider interface {
	// Generate returns the full text completion for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateJSON returns a completion constrained to a JSON document,
	// with any markdown fencing stripped.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Embedder turns text into a dense vector for similarity lookups.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}
