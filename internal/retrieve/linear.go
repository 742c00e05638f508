package retrieve

import (
	"context"

	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// LinearIndex scores every record in the collection on each query. It is
// exact and keeps no state beyond the collection.
type LinearIndex struct {
	col store.Collection
}

var _ VectorIndex = (*LinearIndex)(nil)

// NewLinearIndex returns an index over col.
func NewLinearIndex(col store.Collection) *LinearIndex {
	return &LinearIndex{col: col}
}

// Put implements VectorIndex.
func (l *LinearIndex) Put(ctx context.Context, rec store.Record) error {
	return l.col.Put(ctx, rec)
}

// Count implements VectorIndex.
func (l *LinearIndex) Count(ctx context.Context) (int, error) {
	return l.col.Count(ctx)
}

// QueryTopK implements VectorIndex.
func (l *LinearIndex) QueryTopK(ctx context.Context, vec []float32, k int) ([]Result, error) {
	records, err := l.col.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) != len(vec) {
			return nil, dimensionError(len(vec), len(rec.Vector))
		}
		results = append(results, resultFrom(rec, Cosine(vec, rec.Vector)))
	}
	return rank(results, k), nil
}
