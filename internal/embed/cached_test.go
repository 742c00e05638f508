package embed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Cache hits skip the provider
func TestCachedEmbedder_Hit(t *testing.T) {
	// Given: a cached embedder over a counting double
	inner := &countingEmbedder{model: "m", vector: []float32{1, 2, 3}}
	c := NewCachedEmbedder(inner, 4)
	ctx := context.Background()

	// When: embedding the same text twice
	a, err := c.Embed(ctx, "query")
	require.NoError(t, err)
	b, err := c.Embed(ctx, "query")
	require.NoError(t, err)

	// Then: the provider is called once
	assert.Equal(t, a, b)
	assert.Equal(t, int64(1), inner.calls.Load())
	assert.Equal(t, 1, c.Len())
}

// TS02: Errors are not cached
func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{model: "m", err: errUpstream}
	c := NewCachedEmbedder(inner, 4)
	ctx := context.Background()

	_, err := c.Embed(ctx, "query")
	require.ErrorIs(t, err, errUpstream)
	_, err = c.Embed(ctx, "query")
	require.ErrorIs(t, err, errUpstream)

	assert.Equal(t, int64(2), inner.calls.Load())
	assert.Equal(t, 0, c.Len())
}

// TS03: Least recently used entries are evicted
func TestCachedEmbedder_Eviction(t *testing.T) {
	inner := &countingEmbedder{model: "m", vector: []float32{1}}
	c := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "a"} {
		_, err := c.Embed(ctx, q)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(4), inner.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCachedEmbedder_KeyIncludesModel(t *testing.T) {
	c1 := NewCachedEmbedder(&countingEmbedder{model: "one"}, 1)
	c2 := NewCachedEmbedder(&countingEmbedder{model: "two"}, 1)

	assert.NotEqual(t, c1.cacheKey("text"), c2.cacheKey("text"))
	assert.Equal(t, c1.cacheKey("text"), c1.cacheKey("text"))
	assert.Len(t, c1.cacheKey("text"), 64)
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	inner := &countingEmbedder{model: "passthrough"}
	c := NewCachedEmbedder(inner, 0)

	assert.Equal(t, "passthrough", c.ModelName())
	assert.Same(t, inner, c.Unwrap())
	require.NoError(t, c.Close())
	assert.True(t, inner.closed)
}

// blockingEmbedder holds every call until release is closed.
type blockingEmbedder struct {
	countingEmbedder
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return b.countingEmbedder.Embed(ctx, text)
}

// TS04: Concurrent misses for one text share a provider call
func TestCachedEmbedder_ConcurrentMissesCoalesce(t *testing.T) {
	// Given: a provider that blocks until released
	inner := &blockingEmbedder{
		countingEmbedder: countingEmbedder{model: "m", vector: []float32{1}},
		entered:          make(chan struct{}, 1),
		release:          make(chan struct{}),
	}
	c := NewCachedEmbedder(inner, 4)

	// When: five callers ask for the same text at once
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Embed(context.Background(), "same")
			assert.NoError(t, err)
		}()
	}
	<-inner.entered
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	// Then: the provider ran once
	assert.Equal(t, int64(1), inner.calls.Load())
}
