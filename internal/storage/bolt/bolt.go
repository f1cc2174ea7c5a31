// Package bolt provides a bbolt-backed implementation of storage.Store.
//
// bbolt holds an exclusive lock on the database file for as long as a handle
// is open, so a second process (for example a CLI command while serve runs)
// cannot open the same file and fails with ErrLocked.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// ErrLocked reports that another handle holds the database open.
var ErrLocked = errors.New("database is locked by another process")

// openTimeout bounds the wait for the database file lock.
var openTimeout = 2 * time.Second

var (
	bucketLedger = []byte("ledger")
	keyDocument  = []byte("document")
)

// Store represents the bbolt database wrapper.
// bbolt allows one read-write transaction at a time, which is what serialises Update.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database at dbPath and seeds an empty document.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %w", storage.ErrUnavailable, err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: openTimeout})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: open %s: %w", storage.ErrUnavailable, dbPath, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", storage.ErrUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketLedger)
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketLedger, err)
		}
		if b.Get(keyDocument) != nil {
			return nil
		}
		return put(b, models.NewDocument())
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the current document.
func (s *Store) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *models.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		doc, err = get(tx.Bucket(bucketLedger))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return doc, nil
}

// Save replaces the document in one transaction.
func (s *Store) Save(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(bucketLedger), doc)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

// callbackError marks errors that came from the Update callback so they are
// returned to the caller unwrapped.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }

// Update applies fn inside a single read-write transaction.
func (s *Store) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLedger)
		doc, err := get(b)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return callbackError{err}
		}
		return put(b, doc)
	})

	var cbErr callbackError
	if errors.As(err, &cbErr) {
		return cbErr.err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

func get(b *bbolt.Bucket) (*models.Document, error) {
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", bucketLedger)
	}
	data := b.Get(keyDocument)
	if data == nil {
		return models.NewDocument(), nil
	}
	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func put(b *bbolt.Bucket, doc *models.Document) error {
	if b == nil {
		return fmt.Errorf("bucket %s not found", bucketLedger)
	}
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := b.Put(keyDocument, data); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}
