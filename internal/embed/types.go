// Package embed turns text into vector embeddings. Providers are the hosted
// Gemini API, a local Ollama server and an offline hash embedder; any of
// them can be wrapped in an LRU cache.
package embed

import (
	"context"
	"math"
)

// Embedder generates vector embeddings for text.
// Failures are reported as EmbeddingError.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Default model names per provider.
const (
	DefaultGeminiModel = "text-embedding-004"
	DefaultOllamaModel = "nomic-embed-text"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOpenAIModel = "text-embedding-3-small"
)

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
