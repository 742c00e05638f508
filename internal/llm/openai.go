package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// OpenAIConfig configures the OpenAI generator.
type OpenAIConfig struct {
	APIKey string
	// BaseURL points at a compatible server. With a BaseURL the key may be empty.
	BaseURL     string
	Model       string
	Temperature float64
	Options     []oaioption.RequestOption
}

// OpenAIGenerator sends the prompt as a single user message to the chat
// completions endpoint.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates an OpenAI generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
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

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate implements Generator. Only the first choice is used.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:    openai.ChatModel(g.model),
	}
	if g.temperature > 0 {
		params.Temperature = openai.Float(g.temperature)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", amerrors.GenerationError(fmt.Sprintf("openai generation failed: %v", err), err).
			WithDetail("model", g.model)
	}
	if len(resp.Choices) == 0 {
		return "", amerrors.GenerationError("openai returned no choices", nil).
			WithDetail("model", g.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName implements Generator.
func (g *OpenAIGenerator) ModelName() string { return g.model }

// Close implements Generator.
func (g *OpenAIGenerator) Close() error { return nil }
