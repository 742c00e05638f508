// Package retrieve ranks stored chunks against a query by cosine
// similarity. Ranking runs behind the VectorIndex boundary: an exact
// linear scan over the store by default, or an HNSW graph or chromem-go
// mirror built from the same records.
package retrieve

import (
	"context"

	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// Result is one ranked passage.
type Result struct {
	ID         string  `json:"id"`
	Path       string  `json:"file_path"`
	Section    string  `json:"section"`
	Document   string  `json:"document"`
	Chunk      string  `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// VectorIndex stores records and answers top-K similarity queries.
// Results are ordered by similarity, highest first; ties keep storage order.
type VectorIndex interface {
	// Put writes rec through to the store and updates the index.
	Put(ctx context.Context, rec store.Record) error

	// QueryTopK returns at most k results for vec.
	QueryTopK(ctx context.Context, vec []float32, k int) ([]Result, error)

	// Count returns the number of records in the underlying collection.
	Count(ctx context.Context) (int, error)
}

func resultFrom(rec store.Record, sim float64) Result {
	return Result{
		ID:         rec.ID,
		Path:       rec.Metadata.FilePath,
		Section:    rec.Metadata.Section,
		Document:   rec.Metadata.Document,
		Chunk:      rec.Metadata.Chunk,
		Similarity: sim,
	}
}
