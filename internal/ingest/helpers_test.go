package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/openmc-assist/internal/config"
	"github.com/Aman-CERP/openmc-assist/internal/embed"
	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// failingEmbedder delegates to a static embedder but fails for texts
// containing any of its markers.
type failingEmbedder struct {
	inner   embed.Embedder
	markers []string
	err     error
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	for _, m := range f.markers {
		if strings.Contains(text, m) {
			if f.err != nil {
				return nil, f.err
			}
			return nil, errors.New("upstream rejected " + m)
		}
	}
	return f.inner.Embed(ctx, text)
}

func (f *failingEmbedder) ModelName() string { return f.inner.ModelName() }
func (f *failingEmbedder) Close() error      { return nil }

// failingIndex fails every Put after the first n.
type failingIndex struct {
	retrieve.VectorIndex
	allow int
	puts  int
}

func (f *failingIndex) Put(ctx context.Context, rec store.Record) error {
	f.puts++
	if f.puts > f.allow {
		return errors.New("disk full")
	}
	return f.VectorIndex.Put(ctx, rec)
}

type fixture struct {
	cfg *config.Config
	col store.Collection
	idx retrieve.VectorIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), ".openmc-assist")

	s, err := store.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	col, err := s.GetOrCreateCollection(context.Background(), cfg.Store.Collection)
	require.NoError(t, err)
	return &fixture{cfg: cfg, col: col, idx: retrieve.NewLinearIndex(col)}
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func storedIDs(t *testing.T, col store.Collection) []string {
	t.Helper()
	recs, err := col.GetAll(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}
