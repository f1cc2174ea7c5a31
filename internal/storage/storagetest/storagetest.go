// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Opener returns a fresh, empty store. It should register its own cleanup.
type Opener func(t *testing.T) storage.Store

// PathOpener opens a store handle on an existing or new location. Calling it
// twice with the same path yields two independent handles on one ledger.
type PathOpener func(t *testing.T, path string) storage.Store

// SampleDocument returns a small ledger with two users and one expense.
func SampleDocument() *models.Document {
	return &models.Document{
		Users: []models.User{
			{ID: 1, Name: "Alice", Email: "alice@example.com", PasswordHash: "$2a$10$hash"},
			{ID: 2, Name: "Bob", Email: "Bob@Example.com"},
		},
		Expenses: []models.Expense{
			{
				ID:          1,
				Description: "Dinner",
				Amount:      decimal.RequireFromString("45.50"),
				Date:        time.Date(2024, 3, 1, 19, 30, 0, 0, time.UTC),
				PaidBy:      1,
				SplitPolicy: models.SplitEqual,
				Shares: []models.Share{
					{UserID: 1, Amount: decimal.RequireFromString("22.75")},
					{UserID: 2, Amount: decimal.RequireFromString("22.75")},
				},
			},
		},
	}
}

// Run exercises open against the storage.Store contract.
func Run(t *testing.T, open Opener) {
	ctx := context.Background()

	t.Run("Load initializes empty document", func(t *testing.T) {
		s := open(t)
		doc, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if doc.Users == nil || doc.Expenses == nil {
			t.Errorf("expected non-nil collections, got %+v", doc)
		}
		if len(doc.Users) != 0 || len(doc.Expenses) != 0 {
			t.Errorf("expected empty document, got %d users, %d expenses", len(doc.Users), len(doc.Expenses))
		}
	})

	t.Run("Save then Load returns the same document", func(t *testing.T) {
		s := open(t)
		want := SampleDocument()
		if err := s.Save(ctx, want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		assertSameDocument(t, got, SampleDocument())
	})

	t.Run("Save of a loaded document is a no-op", func(t *testing.T) {
		s := open(t)
		if err := s.Save(ctx, SampleDocument()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		first, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := s.Save(ctx, first); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		second, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		assertSameDocument(t, second, first)
	})

	t.Run("Update persists changes", func(t *testing.T) {
		s := open(t)
		err := s.Update(ctx, func(doc *models.Document) error {
			doc.Users = append(doc.Users, models.User{ID: storage.NextID(doc.Users, storage.UserID), Name: "Carol"})
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		doc, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(doc.Users) != 1 || doc.Users[0].ID != 1 || doc.Users[0].Name != "Carol" {
			t.Errorf("unexpected users after update: %+v", doc.Users)
		}
	})

	t.Run("Update error leaves document unchanged", func(t *testing.T) {
		s := open(t)
		if err := s.Save(ctx, SampleDocument()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		boom := errors.New("boom")
		err := s.Update(ctx, func(doc *models.Document) error {
			doc.Users = nil
			return boom
		})
		if err != boom {
			t.Fatalf("Update error = %v, want the callback's error unchanged", err)
		}
		doc, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		assertSameDocument(t, doc, SampleDocument())
	})

	t.Run("Concurrent updates are not lost", func(t *testing.T) {
		s := open(t)
		const writers = 16

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Update(ctx, func(doc *models.Document) error {
					doc.Users = append(doc.Users, models.User{ID: storage.NextID(doc.Users, storage.UserID)})
					return nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
		}

		doc, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(doc.Users) != writers {
			t.Fatalf("expected %d users, got %d", writers, len(doc.Users))
		}
		seen := make(map[int64]bool)
		for _, u := range doc.Users {
			if seen[u.ID] {
				t.Errorf("duplicate id %d", u.ID)
			}
			seen[u.ID] = true
		}
	})

	t.Run("Canceled context is rejected", func(t *testing.T) {
		s := open(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Load(cctx); err == nil {
			t.Error("expected error loading with canceled context")
		}
		if err := s.Update(cctx, func(*models.Document) error { return nil }); err == nil {
			t.Error("expected error updating with canceled context")
		}
	})
}

// RunSharedPath checks that updates made through separate handles on the same
// path are serialised: each of the two handles appends perHandle users
// concurrently and every one of them must be persisted with a unique id.
func RunSharedPath(t *testing.T, path string, open PathOpener, perHandle int) {
	ctx := context.Background()
	handles := []storage.Store{open(t, path), open(t, path)}

	var wg sync.WaitGroup
	errs := make(chan error, len(handles)*perHandle)
	for _, s := range handles {
		for i := 0; i < perHandle; i++ {
			wg.Add(1)
			go func(s storage.Store) {
				defer wg.Done()
				errs <- s.Update(ctx, func(doc *models.Document) error {
					doc.Users = append(doc.Users, models.User{ID: storage.NextID(doc.Users, storage.UserID)})
					return nil
				})
			}(s)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	for i, s := range handles {
		doc, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load through handle %d failed: %v", i, err)
		}
		if want := len(handles) * perHandle; len(doc.Users) != want {
			t.Fatalf("handle %d sees %d users, want %d", i, len(doc.Users), want)
		}
		seen := make(map[int64]bool)
		for _, u := range doc.Users {
			if seen[u.ID] {
				t.Errorf("duplicate id %d", u.ID)
			}
			seen[u.ID] = true
		}
	}
}

func assertSameDocument(t *testing.T, got, want *models.Document) {
	t.Helper()
	g, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	w, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	if string(g) != string(w) {
		t.Errorf("document mismatch:\n got: %s\nwant: %s", g, w)
	}
}
