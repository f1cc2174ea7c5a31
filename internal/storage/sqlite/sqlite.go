// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
//
// The ledger document is kept as JSON in a single row alongside a version
// counter. Updates compare-and-swap on that version, so writers in other
// processes sharing the database cannot silently overwrite each other.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const (
	emptyDocument = `{"users":[],"expenses":[]}`

	// maxAttempts bounds the compare-and-swap loop in Update.
	maxAttempts = 10
)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	// mu serialises writers in this process; the version check covers the rest.
	mu sync.Mutex
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %w", storage.ErrUnavailable, err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", storage.ErrUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", storage.ErrUnavailable, err)
	}

	_, err = db.Exec(
		"INSERT OR IGNORE INTO ledger_document (id, body, version, updated_at) VALUES (1, ?, 0, ?)",
		emptyDocument, time.Now().Unix(),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: seed document: %w", storage.ErrUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the current document.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, _, err := s.read(ctx, s.db)
	return doc, err
}

// Save replaces the document in a single UPDATE.
func (s *SQLiteStore) Save(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"UPDATE ledger_document SET body = ?, version = version + 1, updated_at = ? WHERE id = 1",
		body, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: update document: %w", storage.ErrUnavailable, err)
	}
	return nil
}

// Update loads the document, applies fn and writes it back only if no other
// writer bumped the version in between, retrying a bounded number of times.
func (s *SQLiteStore) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doc, version, err := s.read(ctx, s.db)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		body, err := encode(doc)
		if err != nil {
			return err
		}

		res, err := s.db.ExecContext(ctx,
			"UPDATE ledger_document SET body = ?, version = version + 1, updated_at = ? WHERE id = 1 AND version = ?",
			body, time.Now().Unix(), version,
		)
		if err != nil {
			return fmt.Errorf("%w: update document: %w", storage.ErrUnavailable, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: check update: %w", storage.ErrUnavailable, err)
		}
		if n == 1 {
			return nil
		}
		slog.Debug("Ledger document changed concurrently, retrying", "attempt", attempt, "version", version)
	}
	return storage.ErrConflict
}

// Version returns the current document version. Each successful write bumps it.
func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, "SELECT version FROM ledger_document WHERE id = 1").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("%w: get version: %w", storage.ErrUnavailable, err)
	}
	return version, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) read(ctx context.Context, q queryer) (*models.Document, int64, error) {
	var (
		body    string
		version int64
	)
	err := q.QueryRowContext(ctx, "SELECT body, version FROM ledger_document WHERE id = 1").Scan(&body, &version)
	if err == sql.ErrNoRows {
		return nil, 0, fmt.Errorf("%w: ledger document row missing", storage.ErrUnavailable)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: get document: %w", storage.ErrUnavailable, err)
	}

	doc := &models.Document{}
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, 0, fmt.Errorf("%w: decode document: %w", storage.ErrUnavailable, err)
	}
	doc.Normalize()
	return doc, version, nil
}

func encode(doc *models.Document) (string, error) {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode document: %w", storage.ErrUnavailable, err)
	}
	return string(data), nil
}
