package retrieve

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// errNoEmbeddingFunc is returned if chromem ever asks to embed text; every
// document and query carries its own vector.
var errNoEmbeddingFunc = errors.New("chromem mirror does not embed text")

// revisionsFile sits in the chromem directory next to the collection
// folders. chromem only loads subdirectories, so it ignores the file.
const revisionsFile = "revisions.json"

// ChromemIndex mirrors a collection into a persistent chromem-go database
// and queries it with QueryEmbedding. The SQLite store stays the source of
// truth: the collection revision the mirror reflects is recorded beside
// it, and the mirror is rebuilt whenever the revision this instance holds
// in memory differs from the store's.
// Zero vectors are not mirrored; they score 0 and are merged in at query
// time.
type ChromemIndex struct {
	col  store.Collection
	db   *chromem.DB
	dir  string
	name string

	mu     sync.Mutex
	mirror *chromem.Collection
	order  map[string]int
	zeros  map[string]store.Record
	dims   int
	rev    int64 // revision the in-memory mirror reflects
	known  bool  // rev is meaningful
	synced bool
}

var _ VectorIndex = (*ChromemIndex)(nil)

// NewChromemIndex opens (or creates) the chromem database at dir.
func NewChromemIndex(col store.Collection, dir string) (*ChromemIndex, error) {
	c := &ChromemIndex{col: col, dir: dir, name: col.Name()}
	// The stamp is read before the documents are loaded, so a concurrent
	// rebuild can only make it look older than the content.
	c.rev, c.known = c.readRevision()

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, amerrors.StoreError("failed to open chromem database", err).WithDetail("path", dir)
	}
	c.db = db
	return c, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// readRevision returns the revision last recorded for the mirror.
func (c *ChromemIndex) readRevision() (int64, bool) {
	data, err := os.ReadFile(filepath.Join(c.dir, revisionsFile))
	if err != nil {
		return 0, false
	}
	revs := map[string]int64{}
	if err := json.Unmarshal(data, &revs); err != nil {
		return 0, false
	}
	rev, ok := revs[c.name]
	return rev, ok
}

// writeRevision records rev for the mirror. The file is replaced by rename
// so a crash never leaves a half-written stamp.
func (c *ChromemIndex) writeRevision(rev int64) error {
	path := filepath.Join(c.dir, revisionsFile)
	revs := map[string]int64{}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &revs)
	}
	revs[c.name] = rev

	data, err := json.Marshal(revs)
	if err != nil {
		return amerrors.StoreError("failed to encode chromem revision", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return amerrors.StoreError("failed to write chromem revision", err).WithDetail("path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return amerrors.StoreError("failed to write chromem revision", err).WithDetail("path", path)
	}
	return nil
}

// sync makes the mirror match the collection, rebuilding it unless the
// revision held in memory and the document count both agree with the store.
func (c *ChromemIndex) sync(ctx context.Context) error {
	// Read the revision first: a put racing with GetAll leaves the stamp
	// behind and forces another rebuild rather than hiding the change.
	rev, err := c.col.Revision(ctx)
	if err != nil {
		return err
	}
	records, err := c.col.GetAll(ctx)
	if err != nil {
		return err
	}

	mirror, err := c.db.GetOrCreateCollection(c.name, nil, noEmbedding)
	if err != nil {
		return amerrors.StoreError("failed to open chromem collection", err)
	}

	c.order = make(map[string]int, len(records))
	c.zeros = make(map[string]store.Record)
	c.dims = 0
	for i, rec := range records {
		c.order[rec.ID] = i
		if c.dims == 0 {
			c.dims = len(rec.Vector)
		}
		if isZero(rec.Vector) {
			c.zeros[rec.ID] = rec
		}
	}

	if !c.known || c.rev != rev || mirror.Count() != len(records)-len(c.zeros) {
		if err := c.db.DeleteCollection(c.name); err != nil {
			return amerrors.StoreError("failed to reset chromem collection", err)
		}
		mirror, err = c.db.GetOrCreateCollection(c.name, nil, noEmbedding)
		if err != nil {
			return amerrors.StoreError("failed to open chromem collection", err)
		}
		for _, rec := range records {
			if err := addDocument(ctx, mirror, rec); err != nil {
				return err
			}
		}
		if err := c.writeRevision(rev); err != nil {
			return err
		}
	}

	c.mirror = mirror
	c.rev, c.known = rev, true
	c.synced = true
	return nil
}

func addDocument(ctx context.Context, mirror *chromem.Collection, rec store.Record) error {
	if isZero(rec.Vector) {
		return nil
	}
	vec := make([]float32, len(rec.Vector))
	copy(vec, rec.Vector)
	err := mirror.AddDocument(ctx, chromem.Document{
		ID: rec.ID,
		Metadata: map[string]string{
			"file_path": rec.Metadata.FilePath,
			"section":   rec.Metadata.Section,
			"document":  rec.Metadata.Document,
		},
		Embedding: vec,
		Content:   rec.Metadata.Chunk,
	})
	if err != nil {
		return amerrors.StoreError("failed to mirror record", err).WithDetail("id", rec.ID)
	}
	return nil
}

// Put implements VectorIndex. A synced mirror is updated in place and its
// stamp advanced; otherwise only the store is written and the next query
// rebuilds the mirror.
func (c *ChromemIndex) Put(ctx context.Context, rec store.Record) error {
	if err := c.col.Put(ctx, rec); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.synced {
		return nil
	}
	rev, err := c.col.Revision(ctx)
	if err != nil {
		return err
	}
	if rev != c.rev+1 {
		// Another writer touched the collection since the last sync.
		c.synced = false
		return nil
	}

	if _, ok := c.order[rec.ID]; !ok {
		c.order[rec.ID] = len(c.order)
	}
	if c.dims == 0 {
		c.dims = len(rec.Vector)
	}
	if isZero(rec.Vector) {
		c.zeros[rec.ID] = rec
		if err := c.mirror.Delete(ctx, nil, nil, rec.ID); err != nil {
			return amerrors.StoreError("failed to remove mirrored record", err).WithDetail("id", rec.ID)
		}
	} else {
		delete(c.zeros, rec.ID)
		if err := addDocument(ctx, c.mirror, rec); err != nil {
			return err
		}
	}

	c.rev = rev
	return c.writeRevision(rev)
}

// Count implements VectorIndex.
func (c *ChromemIndex) Count(ctx context.Context) (int, error) {
	return c.col.Count(ctx)
}

// QueryTopK implements VectorIndex. Similarity is recomputed from the
// returned embedding. A zero query scores every record 0 and is answered
// by the linear scan so ties resolve in storage order.
func (c *ChromemIndex) QueryTopK(ctx context.Context, vec []float32, k int) ([]Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rev, err := c.col.Revision(ctx)
	if err != nil {
		return nil, err
	}
	if !c.synced || rev != c.rev {
		if err := c.sync(ctx); err != nil {
			return nil, err
		}
	}

	if k < 1 || len(c.order) == 0 {
		return nil, nil
	}
	if c.dims != len(vec) {
		return nil, dimensionError(len(vec), c.dims)
	}
	if isZero(vec) {
		return NewLinearIndex(c.col).QueryTopK(ctx, vec, k)
	}

	results := make([]Result, 0, k+len(c.zeros))
	if available := c.mirror.Count(); available > 0 {
		n := k
		if n > available {
			n = available
		}
		docs, err := c.mirror.QueryEmbedding(ctx, vec, n, nil, nil)
		if err != nil {
			return nil, amerrors.StoreError("chromem query failed", err)
		}
		for _, d := range docs {
			if len(d.Embedding) != len(vec) {
				return nil, dimensionError(len(vec), len(d.Embedding))
			}
			results = append(results, Result{
				ID:         d.ID,
				Path:       d.Metadata["file_path"],
				Section:    d.Metadata["section"],
				Document:   d.Metadata["document"],
				Chunk:      d.Content,
				Similarity: Cosine(vec, d.Embedding),
			})
		}
	}
	for _, z := range c.zeros {
		results = append(results, resultFrom(z, 0))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return c.order[results[i].ID] < c.order[results[j].ID]
	})
	return rank(results, k), nil
}
