// Package file provides a JSON-file implementation of storage.Store.
//
// The document is written to a temporary file in the same directory and then
// renamed over the canonical path, so a reader never observes a partially
// written document and a failed write leaves the previous version intact.
// Writers take an advisory lock on <path>.lock, which serialises them across
// store handles and processes sharing the file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const lockRetryDelay = 10 * time.Millisecond

// Store keeps the ledger in a single human-readable JSON file.
type Store struct {
	// mu serialises writers within this handle; flock covers other handles.
	mu    sync.Mutex
	flock *flock.Flock
	path  string
}

// New creates a Store at path. It creates the parent directory and writes an
// empty document if the file does not exist yet.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create store directory: %w", storage.ErrUnavailable, err)
	}

	s := &Store{path: path, flock: flock.New(path + ".lock")}
	unlock, err := s.lock(context.Background())
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, err := s.readOrInit(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the canonical document location.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op; the store holds no open handles between operations.
func (s *Store) Close() error {
	return nil
}

// Load reads the current document.
func (s *Store) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		// Deleted behind our back: recreate under the writer lock.
		unlock, err := s.lock(ctx)
		if err != nil {
			return nil, err
		}
		defer unlock()
		return s.readOrInit()
	}
	return doc, err
}

// Save persists doc atomically.
func (s *Store) Save(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(doc)
}

// Update runs a load-modify-save cycle while holding the writer lock.
func (s *Store) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.readOrInit()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

// lock takes the in-process mutex and then the file lock. The returned
// function releases both.
func (s *Store) lock(ctx context.Context) (func(), error) {
	s.mu.Lock()
	locked, err := s.flock.TryLockContext(ctx, lockRetryDelay)
	if err == nil && !locked {
		err = errors.New("lock not acquired")
	}
	if err != nil {
		s.mu.Unlock()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: lock %s: %w", storage.ErrUnavailable, s.flock.Path(), err)
	}
	return func() {
		if err := s.flock.Unlock(); err != nil {
			slog.Warn("Failed to release store lock", "path", s.flock.Path(), "error", err)
		}
		s.mu.Unlock()
	}, nil
}

// readOrInit must be called with the writer lock held.
func (s *Store) readOrInit() (*models.Document, error) {
	doc, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		doc = models.NewDocument()
		if err := s.write(doc); err != nil {
			return nil, err
		}
		slog.Debug("Initialized empty ledger document", "path", s.path)
		return doc, nil
	}
	return doc, err
}

func (s *Store) read() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read document: %w", storage.ErrUnavailable, err)
	}

	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: decode document %s: %w", storage.ErrUnavailable, s.path, err)
	}
	doc.Normalize()
	return doc, nil
}

// write must be called with the writer lock held. renameio writes a temp file
// next to path, fsyncs it and renames it into place, removing it on failure.
func (s *Store) write(doc *models.Document) error {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode document: %w", storage.ErrUnavailable, err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644, renameio.WithTempDir(filepath.Dir(s.path))); err != nil {
		return fmt.Errorf("%w: replace document: %w", storage.ErrUnavailable, err)
	}
	return nil
}
