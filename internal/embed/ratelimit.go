package embed

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// RateLimitedEmbedder spaces calls to inner so a bulk ingestion stays under
// a hosted provider's request quota.
type RateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder allows rps calls per second with a burst of one
// second's worth of calls.
func NewRateLimitedEmbedder(inner Embedder, rps float64) *RateLimitedEmbedder {
	burst := int(math.Max(1, math.Ceil(rps)))
	return &RateLimitedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed waits for a token, then calls inner. A canceled wait is returned as
// the context error so callers can tell it from a provider failure.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, amerrors.EmbeddingError("rate limiter rejected request", err)
	}
	return r.inner.Embed(ctx, text)
}

// ModelName implements Embedder.
func (r *RateLimitedEmbedder) ModelName() string { return r.inner.ModelName() }

// Close implements Embedder.
func (r *RateLimitedEmbedder) Close() error { return r.inner.Close() }

// Unwrap returns the wrapped embedder.
func (r *RateLimitedEmbedder) Unwrap() Embedder { return r.inner }
