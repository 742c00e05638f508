package retrieve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Puts through the HNSW index reach the store and the graph
func TestHNSWIndex_PutAfterBuild(t *testing.T) {
	// Given: a built graph over one record
	col := newCollection(t, rec("a", 1, 0))
	idx := NewHNSWIndex(col)
	ctx := context.Background()
	_, err := idx.QueryTopK(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)

	// When: adding one record and replacing another
	require.NoError(t, idx.Put(ctx, rec("b", 0, 1)))
	require.NoError(t, idx.Put(ctx, rec("a", -1, 0)))

	// Then: the new vectors are searchable and the store holds both
	results, err := idx.QueryTopK(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, resultIDs(results))
	assert.InDelta(t, 0.0, results[1].Similarity, 1e-9)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHNSWIndex_ReplacedByZeroVector(t *testing.T) {
	col := newCollection(t, rec("a", 1, 0), rec("b", 0, 1))
	idx := NewHNSWIndex(col)
	ctx := context.Background()
	_, err := idx.QueryTopK(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)

	require.NoError(t, idx.Put(ctx, rec("a", 0, 0)))

	results, err := idx.QueryTopK(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, resultIDs(results))
	assert.Zero(t, results[0].Similarity)
	assert.Zero(t, results[1].Similarity)
}

// TS02: The chromem mirror is rebuilt from the store when it falls behind
func TestChromemIndex_ResyncsFromStore(t *testing.T) {
	// Given: a mirror synced with one record
	col := newCollection(t, rec("a", 1, 0))
	dir := filepath.Join(t.TempDir(), "chromem")
	idx, err := NewChromemIndex(col, dir)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = idx.QueryTopK(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)

	// When: the collection grows behind the index's back
	require.NoError(t, col.Put(ctx, rec("b", 0, 1)))

	// Then: the next query sees the new record
	results, err := idx.QueryTopK(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, resultIDs(results))
	assert.Equal(t, "chunk b", results[0].Chunk)
	assert.Equal(t, "docs/b.rst", results[0].Path)
}

func TestChromemIndex_PutWritesThrough(t *testing.T) {
	col := newCollection(t)
	idx, err := NewChromemIndex(col, filepath.Join(t.TempDir(), "chromem"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Put(ctx, rec("a", 1, 0)))
	_, err = idx.QueryTopK(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.NoError(t, idx.Put(ctx, rec("b", 1, 1)))

	n, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := idx.QueryTopK(ctx, []float32{1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, resultIDs(results))
}

func TestChromemIndex_ReopenUsesPersistedMirror(t *testing.T) {
	col := newCollection(t, rec("a", 1, 0), rec("b", 0, 1))
	dir := filepath.Join(t.TempDir(), "chromem")
	ctx := context.Background()

	first, err := NewChromemIndex(col, dir)
	require.NoError(t, err)
	_, err = first.QueryTopK(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)

	second, err := NewChromemIndex(col, dir)
	require.NoError(t, err)
	results, err := second.QueryTopK(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, resultIDs(results))
}

// TS03: Edits written by one process are seen by the next, even at equal counts
func TestChromemIndex_SeesEditsFromOtherInstances(t *testing.T) {
	// Given: a mirror persisted by a first index that answered a query
	col := newCollection(t, rec("a", 1, 0), rec("b", 0, 1))
	dir := filepath.Join(t.TempDir(), "chromem")
	ctx := context.Background()
	reader, err := NewChromemIndex(col, dir)
	require.NoError(t, err)
	_, err = reader.QueryTopK(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)

	// When: a second index, as in a separate ingest run, replaces a record
	writer, err := NewChromemIndex(col, dir)
	require.NoError(t, err)
	edited := rec("a", 0, 1)
	edited.Metadata.Chunk = "edited chunk a"
	require.NoError(t, writer.Put(ctx, edited))

	// Then: a fresh index and the original one both serve the new version,
	// even after the fresh one has rewritten the mirror on disk
	fresh, err := NewChromemIndex(col, dir)
	require.NoError(t, err)
	for _, tc := range []struct {
		name string
		idx  *ChromemIndex
	}{{"fresh", fresh}, {"original", reader}} {
		name, idx := tc.name, tc.idx
		results, err := idx.QueryTopK(ctx, []float32{1, 0}, 2)
		require.NoError(t, err, name)
		require.Len(t, results, 2, name)

		byID := map[string]Result{results[0].ID: results[0], results[1].ID: results[1]}
		assert.Equal(t, "edited chunk a", byID["a"].Chunk, name)
		assert.InDelta(t, 0.0, byID["a"].Similarity, 1e-6, name)
		assert.Equal(t, []string{"a", "b"}, resultIDs(results), name)
	}
}

func TestChromemIndex_ReplacedByZeroVector(t *testing.T) {
	col := newCollection(t, rec("a", 1, 0), rec("b", 0, 1))
	idx, err := NewChromemIndex(col, filepath.Join(t.TempDir(), "chromem"))
	require.NoError(t, err)
	ctx := context.Background()
	_, err = idx.QueryTopK(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)

	require.NoError(t, idx.Put(ctx, rec("a", 0, 0)))

	results, err := idx.QueryTopK(ctx, []float32{1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, resultIDs(results))
	assert.Zero(t, results[1].Similarity)
}
