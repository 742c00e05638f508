package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/openmc-assist/internal/config"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// New creates the generator selected by cfg.Generation.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	gc := cfg.Generation
	switch strings.ToLower(gc.Provider) {
	case config.ProviderGemini:
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey(), gc.Model, gc.Temperature)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOllama:
		model := gc.Model
		if model == DefaultGeminiModel {
			model = DefaultOllamaModel
		}
		return NewOllamaGenerator(OllamaConfig{Host: gc.OllamaHost, Model: model, Temperature: gc.Temperature}), nil
	case config.ProviderOpenAI:
		model := gc.Model
		if model == DefaultGeminiModel {
			model = DefaultOpenAIModel
		}
		g, err := NewOpenAIGenerator(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey(),
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       model,
			Temperature: gc.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, amerrors.ConfigError(fmt.Sprintf("unknown generation provider %q", gc.Provider), nil)
	}
}
