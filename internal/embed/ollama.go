package embed

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

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434).
	Host string

	// Model is the embedding model (default: nomic-embed-text).
	Model string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// OllamaEmbedRequest is the Ollama /api/embed request.
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// OllamaEmbedResponse is the Ollama /api/embed response.
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaEmbedder generates embeddings using Ollama's HTTP API.
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	host      string
	model     string
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates an Ollama embedder. No request is made until
// the first Embed call.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}

	e := &OllamaEmbedder{
		client: cfg.HTTPClient,
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
	}
	if e.client == nil {
		// No client timeout: calls block until the context is done.
		e.transport = &http.Transport{
			MaxIdleConns:    2,
			IdleConnTimeout: 10 * time.Second,
		}
		e.client = &http.Client{Transport: e.transport}
	}
	return e
}

// Embed implements Embedder.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(OllamaEmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, amerrors.EmbeddingError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, amerrors.EmbeddingError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, amerrors.EmbeddingError(fmt.Sprintf("failed to connect to Ollama: %v", err), err).
			WithDetail("host", e.host).
			WithSuggestion("Start Ollama with 'ollama serve' or check embeddings.ollama_host")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, amerrors.EmbeddingError(
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), nil).
			WithDetail("model", e.model)
	}

	var result OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, amerrors.EmbeddingError("failed to decode response", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, amerrors.EmbeddingError("ollama returned an empty embedding", nil).
			WithDetail("model", e.model)
	}

	vec := make([]float32, len(result.Embeddings[0]))
	for i, v := range result.Embeddings[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}

// ModelName implements Embedder.
func (e *OllamaEmbedder) ModelName() string { return e.model }

// Close implements Embedder.
func (e *OllamaEmbedder) Close() error {
	if e.transport != nil {
		e.transport.CloseIdleConnections()
	}
	return nil
}
