package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// Lock serializes ingestion runs against one storage directory.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the lock at path without blocking. A lock held by
// another run fails with ErrCodeIngestLocked.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, amerrors.StoreError("failed to create storage directory", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, amerrors.StoreError(fmt.Sprintf("failed to lock %s", path), err)
	}
	if !locked {
		return nil, amerrors.New(amerrors.ErrCodeIngestLocked, "another ingestion run holds the lock", nil).
			WithDetail("lock", path).
			WithSuggestion("Wait for the other run to finish, or remove the lock file if no run is active.")
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}
