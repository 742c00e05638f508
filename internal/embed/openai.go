package embed

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	APIKey string
	// BaseURL points at a compatible server. With a BaseURL the key may be empty.
	BaseURL string
	Model   string
	// Options are appended to the client options, mainly for tests.
	Options []oaioption.RequestOption
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI embedder.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, amerrors.New(amerrors.ErrCodeMissingAPIKey, "OpenAI API key is not set", nil).
			WithSuggestion("Export OPENAI_API_KEY or set openai.base_url for a compatible local server")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(cfg.APIKey),
		oaioption.WithHeader("User-Agent", version.UserAgent()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, oaioption.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: cfg.Model}, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, amerrors.EmbeddingError(fmt.Sprintf("openai embedding failed: %v", err), err).
			WithDetail("model", e.model)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, amerrors.EmbeddingError("openai returned an empty embedding", nil).
			WithDetail("model", e.model)
	}

	values := resp.Data[0].Embedding
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}

// ModelName implements Embedder.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Close implements Embedder.
func (e *OpenAIEmbedder) Close() error { return nil }
