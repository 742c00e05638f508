package embed

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates a client for model using apiKey. An empty model
// uses DefaultGeminiModel.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, amerrors.New(amerrors.ErrCodeMissingAPIKey, "Gemini API key is not set", nil).
			WithSuggestion("Export GEMINI_API_KEY or set embeddings.provider to 'ollama' or 'static'")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey), option.WithUserAgent(version.UserAgent())}, opts...)...)
	if err != nil {
		return nil, amerrors.EmbeddingError("failed to create Gemini client", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(model),
		name:   model,
	}, nil
}

// Embed implements Embedder.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, amerrors.EmbeddingError(fmt.Sprintf("gemini embedding failed: %v", err), err).
			WithDetail("model", e.name)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, amerrors.EmbeddingError("gemini returned an empty embedding", nil).
			WithDetail("model", e.name)
	}

	values := resp.Embedding.Values
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}

// ModelName implements Embedder.
func (e *GeminiEmbedder) ModelName() string { return e.name }

// Close implements Embedder.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
