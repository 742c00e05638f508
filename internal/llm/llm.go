// Package llm generates answers from a prompt with a hosted or local
// language model.
package llm

import "context"

// Generator produces a completion for a prompt in a single call. There is
// no streaming and no retry; failures are GenerationError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Default model names per provider.
const (
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOllamaModel = "llama3.1"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOpenAIModel = "gpt-4o-mini"
)
