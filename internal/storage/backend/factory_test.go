package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

func TestOpen(t *testing.T) {
	for _, typ := range Types {
		t.Run(string(typ), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), typ.DefaultFileName())
			s, err := Open(typ, path, nil)
			if err != nil {
				t.Fatalf("Open(%s) failed: %v", typ, err)
			}
			defer s.Close()

			doc, err := s.Load(context.Background())
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(doc.Users) != 0 {
				t.Errorf("expected empty document, got %+v", doc)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open("redis", filepath.Join(t.TempDir(), "x"), nil); err == nil {
		t.Error("expected error for unknown backend")
	}
	if Type("redis").IsValid() {
		t.Error("redis should not be a valid backend")
	}
}

func TestOpen_Instrumented(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s, err := Open(File, filepath.Join(t.TempDir(), "store.json"), m)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rejected := models.ErrMissingField
	if err := s.Update(ctx, func(*models.Document) error { return rejected }); err != rejected {
		t.Fatalf("Update error = %v, want callback error", err)
	}

	if n := testutil.CollectAndCount(m.StoreOperations); n != 2 {
		t.Errorf("expected 2 observed operation series, got %d", n)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("file", "update")); got != 0 {
		t.Errorf("callback errors must not count as store errors, got %v", got)
	}
}
