// Package backend selects and opens a storage.Store implementation by name.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/bolt"
	"github.com/mmynk/splitledger/internal/storage/file"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// Type names a storage backend.
type Type string

const (
	File   Type = "file"
	SQLite Type = "sqlite"
	Bolt   Type = "bolt"
)

// Types lists the supported backends.
var Types = []Type{File, SQLite, Bolt}

// IsValid reports whether t names a supported backend.
func (t Type) IsValid() bool {
	switch t {
	case File, SQLite, Bolt:
		return true
	}
	return false
}

// DefaultFileName is the document name used under the storage directory.
func (t Type) DefaultFileName() string {
	switch t {
	case SQLite:
		return "ledger.db"
	case Bolt:
		return "ledger.bolt"
	default:
		return "store.json"
	}
}

// Open creates the store for t at path and instruments it with m (which may be nil).
func Open(t Type, path string, m *metrics.Metrics) (storage.Store, error) {
	var (
		s   storage.Store
		err error
	)
	switch t {
	case File:
		s, err = file.New(path)
	case SQLite:
		s, err = sqlite.New(path)
	case Bolt:
		s, err = bolt.New(path)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", t, err)
	}

	slog.Debug("Initialized store", "backend", t, "path", path)
	return storage.Instrument(s, string(t), m), nil
}
