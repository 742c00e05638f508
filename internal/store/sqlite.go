package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// SQLiteStore implements Store with modernc.org/sqlite in WAL mode.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

-- revision increases on every put
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	dimensions INTEGER NOT NULL DEFAULT 0,
	revision   INTEGER NOT NULL DEFAULT 0
);

-- rowid order is insertion order; upserts keep the original rowid
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL REFERENCES collections(name),
	id         TEXT NOT NULL,
	vector     BLOB NOT NULL,
	file_path  TEXT NOT NULL,
	section    TEXT NOT NULL,
	document   TEXT NOT NULL,
	chunk      TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// migrations upgrade databases created by older versions, keyed by the
// version they produce.
var migrations = []struct {
	version int
	column  string
	stmt    string
}{
	{2, "revision", `ALTER TABLE collections ADD COLUMN revision INTEGER NOT NULL DEFAULT 0`},
}

// OpenSQLite opens or creates the database at path. An empty path opens an
// in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, amerrors.StoreError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, amerrors.StoreError("failed to open database", err).WithDetail("path", path)
	}

	// Single connection: the in-memory database lives on it and writes are serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	if path != "" {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, amerrors.StoreError("failed to set pragma", err).WithDetail("path", path)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, amerrors.StoreError("failed to initialize schema", err).WithDetail("path", path)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, amerrors.StoreError("failed to migrate schema", err).WithDetail("path", path)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	for _, m := range migrations {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('collections') WHERE name = ?`, m.column).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			if _, err := db.Exec(m.stmt); err != nil {
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file path, empty for in-memory stores.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) checkOpen() error {
	if s.closed {
		return amerrors.StoreError("store is closed", nil)
	}
	return nil
}

// GetOrCreateCollection implements Store.
func (s *SQLiteStore) GetOrCreateCollection(ctx context.Context, name string) (Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, amerrors.ValidationError("collection name must not be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO collections (name) VALUES (?)`, name); err != nil {
		return nil, amerrors.StoreError("failed to create collection", err).WithDetail("collection", name)
	}
	return &sqliteCollection{store: s, name: name}, nil
}

// Collections implements Store.
func (s *SQLiteStore) Collections(ctx context.Context) ([]CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.dimensions, COUNT(r.id)
		FROM collections c LEFT JOIN records r ON r.collection = c.name
		GROUP BY c.name, c.dimensions
		ORDER BY c.name`)
	if err != nil {
		return nil, amerrors.StoreError("failed to list collections", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Dimensions, &info.Count); err != nil {
			return nil, amerrors.StoreError("failed to scan collection", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, amerrors.StoreError("failed to list collections", err)
	}
	return infos, nil
}

// Close implements Store. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return amerrors.StoreError("failed to close database", err)
	}
	return nil
}

type sqliteCollection struct {
	store *SQLiteStore
	name  string
}

func (c *sqliteCollection) Name() string { return c.name }

// Put upserts rec. The first record fixes the collection's dimension;
// later records must match it.
func (c *sqliteCollection) Put(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return amerrors.ValidationError("record id must not be empty", nil)
	}
	if len(rec.Vector) == 0 {
		return amerrors.ValidationError("record vector must not be empty", nil).WithDetail("id", rec.ID)
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return amerrors.StoreError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var dims int
	if err := tx.QueryRowContext(ctx, `SELECT dimensions FROM collections WHERE name = ?`, c.name).Scan(&dims); err != nil {
		return amerrors.StoreError("failed to read collection", err).WithDetail("collection", c.name)
	}
	switch {
	case dims == 0:
		if _, err := tx.ExecContext(ctx, `UPDATE collections SET dimensions = ? WHERE name = ?`, len(rec.Vector), c.name); err != nil {
			return amerrors.StoreError("failed to set dimensions", err).WithDetail("collection", c.name)
		}
	case dims != len(rec.Vector):
		return amerrors.New(amerrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("vector has %d dimensions, collection %q holds %d", len(rec.Vector), c.name, dims), nil).
			WithDetail("id", rec.ID).
			WithSuggestion("Use the embedding model the collection was built with, or ingest into a new collection")
	}

	m := rec.Metadata
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (collection, id, vector, file_path, section, document, chunk)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			vector = excluded.vector,
			file_path = excluded.file_path,
			section = excluded.section,
			document = excluded.document,
			chunk = excluded.chunk`,
		c.name, rec.ID, encodeVector(rec.Vector), m.FilePath, m.Section, m.Document, m.Chunk)
	if err != nil {
		return amerrors.StoreError("failed to put record", err).WithDetail("id", rec.ID)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE collections SET revision = revision + 1 WHERE name = ?`, c.name); err != nil {
		return amerrors.StoreError("failed to bump revision", err).WithDetail("collection", c.name)
	}

	if err := tx.Commit(); err != nil {
		return amerrors.StoreError("failed to commit record", err).WithDetail("id", rec.ID)
	}
	return nil
}

func (c *sqliteCollection) GetAll(ctx context.Context) ([]Record, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vector, file_path, section, document, chunk
		FROM records WHERE collection = ? ORDER BY rowid`, c.name)
	if err != nil {
		return nil, amerrors.StoreError("failed to read records", err).WithDetail("collection", c.name)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var blob []byte
		m := &rec.Metadata
		if err := rows.Scan(&rec.ID, &blob, &m.FilePath, &m.Section, &m.Document, &m.Chunk); err != nil {
			return nil, amerrors.StoreError("failed to scan record", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, amerrors.StoreError("corrupt vector", err).WithDetail("id", rec.ID)
		}
		rec.Vector = vec
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, amerrors.StoreError("failed to read records", err)
	}
	return records, nil
}

func (c *sqliteCollection) Count(ctx context.Context) (int, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, c.name).Scan(&n); err != nil {
		return 0, amerrors.StoreError("failed to count records", err).WithDetail("collection", c.name)
	}
	return n, nil
}

func (c *sqliteCollection) Revision(ctx context.Context) (int64, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var rev int64
	if err := s.db.QueryRowContext(ctx, `SELECT revision FROM collections WHERE name = ?`, c.name).Scan(&rev); err != nil {
		return 0, amerrors.StoreError("failed to read revision", err).WithDetail("collection", c.name)
	}
	return rev, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
