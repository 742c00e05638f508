package retrieve

import (
	"context"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// HNSWIndex answers queries from an in-memory coder/hnsw graph built from
// the collection on first use. The graph only selects candidates: their
// scores are recomputed as exact cosine similarity and ranked like the
// linear scan. Zero vectors cannot be placed in a cosine graph; they are
// kept aside and merged into every answer with similarity 0.
type HNSWIndex struct {
	col store.Collection

	mu      sync.Mutex
	graph   *hnsw.Graph[uint64]
	records map[uint64]store.Record // live key -> record
	keys    map[string]uint64       // id -> live key
	order   map[string]int          // id -> storage position
	zeros   map[string]store.Record // id -> zero-vector record
	nextKey uint64
	orphans int
	rev     int64 // collection revision the graph reflects
	built   bool
}

var _ VectorIndex = (*HNSWIndex)(nil)

// NewHNSWIndex returns an index over col. The graph is built lazily and
// rebuilt when the collection revision moves past what it reflects.
func NewHNSWIndex(col store.Collection) *HNSWIndex {
	return &HNSWIndex{col: col}
}

func (h *HNSWIndex) reset() {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 64
	h.graph = g
	h.records = make(map[uint64]store.Record)
	h.keys = make(map[string]uint64)
	h.order = make(map[string]int)
	h.zeros = make(map[string]store.Record)
	h.nextKey = 0
	h.orphans = 0
}

// build loads the collection snapshot into a fresh graph.
func (h *HNSWIndex) build(ctx context.Context) error {
	rev, err := h.col.Revision(ctx)
	if err != nil {
		return err
	}
	records, err := h.col.GetAll(ctx)
	if err != nil {
		return err
	}
	h.reset()
	for _, rec := range records {
		h.insert(rec)
	}
	h.rev = rev
	h.built = true
	return nil
}

// insert adds rec to the graph. A replaced record's old node is orphaned
// rather than deleted from the graph.
func (h *HNSWIndex) insert(rec store.Record) {
	if old, ok := h.keys[rec.ID]; ok {
		delete(h.records, old)
		delete(h.keys, rec.ID)
		h.orphans++
	}
	if _, ok := h.order[rec.ID]; !ok {
		h.order[rec.ID] = len(h.order)
	}
	delete(h.zeros, rec.ID)
	if isZero(rec.Vector) {
		h.zeros[rec.ID] = rec
		return
	}

	key := h.nextKey
	h.nextKey++
	vec := make([]float32, len(rec.Vector))
	copy(vec, rec.Vector)
	h.graph.Add(hnsw.MakeNode(key, vec))
	h.records[key] = rec
	h.keys[rec.ID] = key
}

// Put implements VectorIndex.
func (h *HNSWIndex) Put(ctx context.Context, rec store.Record) error {
	if err := h.col.Put(ctx, rec); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.built {
		return nil
	}
	rev, err := h.col.Revision(ctx)
	if err != nil {
		return err
	}
	if rev != h.rev+1 {
		// Another writer touched the collection; rebuild on the next query.
		h.built = false
		return nil
	}
	h.insert(rec)
	h.rev = rev
	return nil
}

// Count implements VectorIndex.
func (h *HNSWIndex) Count(ctx context.Context) (int, error) {
	return h.col.Count(ctx)
}

// QueryTopK implements VectorIndex. A zero query scores every record 0 and
// is answered by the linear scan so ties resolve in storage order.
func (h *HNSWIndex) QueryTopK(ctx context.Context, vec []float32, k int) ([]Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rev, err := h.col.Revision(ctx)
	if err != nil {
		return nil, err
	}
	if !h.built || rev != h.rev {
		if err := h.build(ctx); err != nil {
			return nil, err
		}
	}
	if k < 1 || len(h.order) == 0 {
		return nil, nil
	}
	if dims := h.dims(); dims != len(vec) {
		return nil, dimensionError(len(vec), dims)
	}
	if isZero(vec) {
		return NewLinearIndex(h.col).QueryTopK(ctx, vec, k)
	}

	results := make([]Result, 0, k+len(h.zeros))
	if n := h.graph.Len(); n > 0 {
		want := k + h.orphans
		if want > n {
			want = n
		}
		for _, node := range h.graph.Search(vec, want) {
			rec, ok := h.records[node.Key]
			if !ok {
				continue
			}
			results = append(results, resultFrom(rec, Cosine(vec, rec.Vector)))
		}
	}
	for _, z := range h.zeros {
		results = append(results, resultFrom(z, 0))
	}

	// Storage order first so the stable ranking breaks ties the same way as
	// the linear scan.
	sort.SliceStable(results, func(i, j int) bool {
		return h.order[results[i].ID] < h.order[results[j].ID]
	})
	return rank(results, k), nil
}

// dims is the vector size of the indexed records.
func (h *HNSWIndex) dims() int {
	if h.graph.Len() > 0 {
		return h.graph.Dims()
	}
	for _, z := range h.zeros {
		return len(z.Vector)
	}
	return 0
}
