// Package answer runs one question through retrieval, prompt assembly and
// generation.
package answer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/openmc-assist/internal/llm"
	"github.com/Aman-CERP/openmc-assist/internal/prompt"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
)

// Response is a generated answer and the passages it was grounded on.
type Response struct {
	Answer  string            `json:"answer"`
	Sources []retrieve.Result `json:"sources"`
}

// Orchestrator wires a Retriever, a prompt Builder and a Generator.
type Orchestrator struct {
	retriever *retrieve.Retriever
	builder   *prompt.Builder
	generator llm.Generator
	topK      int
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTopK sets how many passages are retrieved per question.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Orchestrator. A nil builder uses the default history window.
func New(r *retrieve.Retriever, b *prompt.Builder, g llm.Generator, opts ...Option) *Orchestrator {
	if b == nil {
		b = &prompt.Builder{}
	}
	o := &Orchestrator{
		retriever: r,
		builder:   b,
		generator: g,
		topK:      retrieve.DefaultTopK,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer returns the generated reply to query. Retrieval and generation
// errors are returned as is.
func (o *Orchestrator) Answer(ctx context.Context, query string, index retrieve.VectorIndex, history []prompt.Turn) (string, error) {
	resp, err := o.Respond(ctx, query, index, history)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Respond is Answer that also returns the retrieved passages.
func (o *Orchestrator) Respond(ctx context.Context, query string, index retrieve.VectorIndex, history []prompt.Turn) (*Response, error) {
	start := time.Now()

	results, err := o.retriever.Retrieve(ctx, query, index, o.topK)
	if err != nil {
		return nil, err
	}

	text := o.builder.Build(query, results, history)

	reply, err := o.generator.Generate(ctx, text)
	if err != nil {
		return nil, err
	}

	o.logger.Info("answered question",
		slog.Int("passages", len(results)),
		slog.Int("history_turns", len(history)),
		slog.Int("prompt_chars", len(text)),
		slog.String("model", o.generator.ModelName()),
		slog.Duration("duration", time.Since(start)))

	return &Response{Answer: reply, Sources: results}, nil
}
