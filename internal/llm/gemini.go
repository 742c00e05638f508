package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// GeminiGenerator calls the Gemini content generation API.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a client for model. temperature is applied
// when positive.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float64, opts ...option.ClientOption) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, amerrors.New(amerrors.ErrCodeMissingAPIKey, "Gemini API key is not set", nil).
			WithSuggestion("Export GEMINI_API_KEY or set generation.provider to 'ollama'")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey), option.WithUserAgent(version.UserAgent())}, opts...)...)
	if err != nil {
		return nil, amerrors.GenerationError("failed to create Gemini client", err)
	}

	m := client.GenerativeModel(model)
	if temperature > 0 {
		m.SetTemperature(float32(temperature))
	}

	return &GeminiGenerator{client: client, model: m, name: model}, nil
}

// Generate implements Generator. Text parts of every candidate are
// concatenated in order.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", amerrors.GenerationError(fmt.Sprintf("gemini generation failed: %v", err), err).
			WithDetail("model", g.name)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	if b.Len() == 0 {
		return "", amerrors.GenerationError("gemini returned no text", nil).WithDetail("model", g.name)
	}
	return b.String(), nil
}

// ModelName implements Generator.
func (g *GeminiGenerator) ModelName() string { return g.name }

// Close implements Generator.
func (g *GeminiGenerator) Close() error { return g.client.Close() }
