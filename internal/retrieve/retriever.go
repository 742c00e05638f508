package retrieve

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/openmc-assist/internal/embed"
	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// DefaultTopK is the number of passages returned when none is configured.
const DefaultTopK = 5

// Retriever embeds a query and ranks indexed chunks against it.
type Retriever struct {
	embedder embed.Embedder
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Retriever.
func New(embedder embed.Embedder, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most topK results for query, most similar first.
// Embedding failures propagate; an empty index yields no results.
func (r *Retriever) Retrieve(ctx context.Context, query string, index VectorIndex, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, amerrors.New(amerrors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if topK < 1 {
		return nil, amerrors.ValidationError("top_k must be at least 1", nil)
	}

	start := time.Now()
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if !amerrors.IsEmbeddingError(err) {
			err = amerrors.EmbeddingError("failed to embed query", err)
		}
		return nil, err
	}

	results, err := index.QueryTopK(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("retrieved passages",
		slog.Int("top_k", topK),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}
