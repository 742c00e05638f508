package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

// OllamaConfig configures the Ollama generator.
type OllamaConfig struct {
	Host        string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// OllamaGenerateRequest is the Ollama /api/generate request.
type OllamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// OllamaGenerateResponse is the non-streaming /api/generate response.
type OllamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaGenerator calls a local Ollama server.
type OllamaGenerator struct {
	client      *http.Client
	transport   *http.Transport
	host        string
	model       string
	temperature float64
}

var _ Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates an Ollama generator.
func NewOllamaGenerator(cfg OllamaConfig) *OllamaGenerator {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}

	g := &OllamaGenerator{
		client:      cfg.HTTPClient,
		host:        strings.TrimRight(cfg.Host, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	if g.client == nil {
		g.transport = &http.Transport{MaxIdleConns: 2, IdleConnTimeout: 10 * time.Second}
		g.client = &http.Client{Transport: g.transport}
	}
	return g
}

// Generate implements Generator.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := OllamaGenerateRequest{Model: g.model, Prompt: prompt}
	if g.temperature > 0 {
		reqBody.Options = map[string]any{"temperature": g.temperature}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", amerrors.GenerationError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", amerrors.GenerationError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", amerrors.GenerationError(fmt.Sprintf("failed to connect to Ollama: %v", err), err).
			WithDetail("host", g.host)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", amerrors.GenerationError(
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), nil).
			WithDetail("model", g.model)
	}

	var result OllamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", amerrors.GenerationError("failed to decode response", err)
	}
	return result.Response, nil
}

// ModelName implements Generator.
func (g *OllamaGenerator) ModelName() string { return g.model }

// Close implements Generator.
func (g *OllamaGenerator) Close() error {
	if g.transport != nil {
		g.transport.CloseIdleConnections()
	}
	return nil
}
