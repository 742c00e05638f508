package embed

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
)

// countingEmbedder is a test double that counts calls.
type countingEmbedder struct {
	calls  atomic.Int64
	model  string
	vector []float32
	err    error
	closed bool
}

func (m *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *countingEmbedder) ModelName() string { return m.model }

func (m *countingEmbedder) Close() error {
	m.closed = true
	return nil
}

var errUpstream = errors.New("upstream unavailable")

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
