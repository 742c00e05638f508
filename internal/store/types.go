// Package store persists embedding records in named collections. The
// SQLite backend keeps every collection in one database file.
package store

import "context"

// Metadata attributes a record to its source chunk.
type Metadata struct {
	FilePath string `json:"file_path"`
	Section  string `json:"section"`
	Document string `json:"document"`
	Chunk    string `json:"chunk"`
}

// Record is the persisted unit: a chunk, its vector and its attribution.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// CollectionInfo summarizes a collection.
type CollectionInfo struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Dimensions int    `json:"dimensions"`
}

// Collection is a named, independently addressable partition of records.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Put inserts or replaces the record with rec.ID. Replacing keeps the
	// record's original storage position.
	Put(ctx context.Context, rec Record) error

	// GetAll returns every record in storage order.
	GetAll(ctx context.Context) ([]Record, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Revision returns a counter that changes with every successful Put,
	// including replacements. Derived indexes compare it to detect that
	// they are stale.
	Revision(ctx context.Context) (int64, error)
}

// Store opens collections. Failures are StoreError.
type Store interface {
	// GetOrCreateCollection returns the named collection, creating it if
	// needed. Existing contents are kept.
	GetOrCreateCollection(ctx context.Context, name string) (Collection, error)

	// Collections lists every collection by name.
	Collections(ctx context.Context) ([]CollectionInfo, error)

	// Close releases the store.
	Close() error
}
