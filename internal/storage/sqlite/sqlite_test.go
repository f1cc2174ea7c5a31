package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storagetest"
)

func newTestStore(t *testing.T, dbPath string) *SQLiteStore {
	t.Helper()
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	})
}

func TestSQLiteStore_SharedPath(t *testing.T) {
	storagetest.RunSharedPath(t, filepath.Join(t.TempDir(), "ledger.db"), func(t *testing.T, path string) storage.Store {
		return newTestStore(t, path)
	}, 5)
}

func TestSQLiteStore_VersionAndPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")
	ctx := context.Background()

	store := newTestStore(t, dbPath)

	t.Run("Fresh database starts at version 0", func(t *testing.T) {
		v, err := store.Version(ctx)
		if err != nil {
			t.Fatalf("Version failed: %v", err)
		}
		if v != 0 {
			t.Errorf("expected version 0, got %d", v)
		}
	})

	t.Run("Each write bumps the version", func(t *testing.T) {
		if err := store.Save(ctx, storagetest.SampleDocument()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		err := store.Update(ctx, func(doc *models.Document) error {
			doc.Users = append(doc.Users, models.User{ID: storage.NextID(doc.Users, storage.UserID), Name: "Carol"})
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		v, err := store.Version(ctx)
		if err != nil {
			t.Fatalf("Version failed: %v", err)
		}
		if v != 2 {
			t.Errorf("expected version 2, got %d", v)
		}
	})

	t.Run("Body stays human readable", func(t *testing.T) {
		var body string
		if err := store.db.QueryRowContext(ctx, "SELECT body FROM ledger_document WHERE id = 1").Scan(&body); err != nil {
			t.Fatalf("query body: %v", err)
		}
		if !strings.Contains(body, `"name": "Carol"`) {
			t.Errorf("unexpected body: %s", body)
		}
	})

	t.Run("Reopening keeps data and skips applied migrations", func(t *testing.T) {
		store.Close()
		reopened := newTestStore(t, dbPath)
		doc, err := reopened.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(doc.Users) != 3 {
			t.Errorf("expected 3 users after reopen, got %d", len(doc.Users))
		}
	})
}

func TestUpdate_DetectsConcurrentWriter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()
	store := newTestStore(t, dbPath)
	other := newTestStore(t, dbPath)

	calls := 0
	err := store.Update(ctx, func(doc *models.Document) error {
		calls++
		if calls == 1 {
			// Another process writes between our read and our write.
			if err := other.Save(ctx, storagetest.SampleDocument()); err != nil {
				t.Fatalf("Save from other store failed: %v", err)
			}
		}
		doc.Users = append(doc.Users, models.User{ID: storage.NextID(doc.Users, storage.UserID), Name: "Dave"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected update to retry once, callback ran %d times", calls)
	}

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(doc.Users) != 3 || doc.Users[2].ID != 3 {
		t.Errorf("expected the other writer's users plus Dave with id 3, got %+v", doc.Users)
	}
}
