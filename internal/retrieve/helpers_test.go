package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// mapEmbedder returns fixed vectors per text.
type mapEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func (m *mapEmbedder) ModelName() string { return "map" }
func (m *mapEmbedder) Close() error      { return nil }

func rec(id string, vec ...float32) store.Record {
	return store.Record{
		ID:     id,
		Vector: vec,
		Metadata: store.Metadata{
			FilePath: "docs/" + id + ".rst",
			Section:  "Section " + id,
			Document: "Doc " + id,
			Chunk:    "chunk " + id,
		},
	}
}

func newCollection(t *testing.T, records ...store.Record) store.Collection {
	t.Helper()
	s, err := store.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	col, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, col.Put(context.Background(), r))
	}
	return col
}

func resultIDs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
