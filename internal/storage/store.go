// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrUnavailable wraps every failure of the backing medium
	// (permissions, disk full, corrupt document, closed database).
	ErrUnavailable = errors.New("storage unavailable")

	// ErrConflict is returned when an optimistic update keeps losing the race
	// against concurrent writers.
	ErrConflict = errors.New("storage conflict: concurrent update")
)

// Store persists the whole ledger as one document.
// This abstraction allows swapping storage backends (JSON file, SQLite, bbolt)
// without changing the ledger layer.
type Store interface {
	// Load returns a copy of the current document. If nothing has been
	// persisted yet, an empty document is written first.
	Load(ctx context.Context) (*models.Document, error)

	// Save replaces the persisted document atomically: readers see either
	// the old or the new document, never a mix.
	Save(ctx context.Context, doc *models.Document) error

	// Update runs fn against the current document and persists the result.
	// Concurrent Updates are serialised, so no write is lost. If fn returns
	// an error, nothing is written and that error is returned unchanged.
	Update(ctx context.Context, fn func(doc *models.Document) error) error

	// Close releases any resources held by the store.
	Close() error
}

// NextID returns max(existing ids) + 1, or 1 for an empty collection.
func NextID[T any](items []T, id func(T) int64) int64 {
	var max int64
	for _, item := range items {
		if v := id(item); v > max {
			max = v
		}
	}
	return max + 1
}

// UserID and ExpenseID are accessors for NextID.
func UserID(u models.User) int64       { return u.ID }
func ExpenseID(e models.Expense) int64 { return e.ID }
