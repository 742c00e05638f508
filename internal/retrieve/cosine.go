package retrieve

import (
	"fmt"
	"math"
	"sort"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// Cosine returns dot(a, b) / (|a| |b|), or 0 when either norm is zero.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// dimensionError reports a query whose size differs from a stored vector.
func dimensionError(query, stored int) error {
	return amerrors.New(amerrors.ErrCodeDimensionMismatch,
		fmt.Sprintf("query vector has %d dimensions, stored vectors have %d", query, stored), nil).
		WithSuggestion("Query with the embedding model the collection was built with")
}

// rank sorts results by similarity, highest first, stably, and keeps k.
func rank(results []Result, k int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
