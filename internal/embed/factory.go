package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/openmc-assist/internal/config"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// New creates the embedder selected by cfg.Embeddings. Provider calls are
// throttled when requests_per_second is set, and the result is wrapped in a
// cache unless cache_size is zero, so cache hits are never throttled.
func New(ctx context.Context, cfg *config.Config) (Embedder, error) {
	inner, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if rps := cfg.Embeddings.RequestsPerSecond; rps > 0 {
		inner = NewRateLimitedEmbedder(inner, rps)
	}
	if cfg.Embeddings.CacheSize == 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.Embeddings.CacheSize), nil
}

func newProvider(ctx context.Context, cfg *config.Config) (Embedder, error) {
	ec := cfg.Embeddings
	switch strings.ToLower(ec.Provider) {
	case config.ProviderGemini:
		e, err := NewGeminiEmbedder(ctx, cfg.GeminiAPIKey(), ec.Model)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderOllama:
		model := ec.Model
		if model == DefaultGeminiModel {
			model = DefaultOllamaModel
		}
		return NewOllamaEmbedder(OllamaConfig{Host: ec.OllamaHost, Model: model}), nil
	case config.ProviderOpenAI:
		model := ec.Model
		if model == DefaultGeminiModel {
			model = DefaultOpenAIModel
		}
		e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: cfg.OpenAIAPIKey(), BaseURL: cfg.OpenAI.BaseURL, Model: model})
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderStatic:
		return NewStaticEmbedder(ec.Dimensions), nil
	default:
		return nil, amerrors.ConfigError(fmt.Sprintf("unknown embeddings provider %q", ec.Provider), nil)
	}
}
