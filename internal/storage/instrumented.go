package storage

import (
	"context"
	"time"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

// Ensure instrumentedStore implements Store
var _ Store = (*instrumentedStore)(nil)

type instrumentedStore struct {
	next    Store
	backend string
	m       *metrics.Metrics
}

// Instrument wraps s so that every operation is timed and errors are counted
// under the given backend label. A nil m returns s unchanged.
func Instrument(s Store, backend string, m *metrics.Metrics) Store {
	if m == nil {
		return s
	}
	return &instrumentedStore{next: s, backend: backend, m: m}
}

func (s *instrumentedStore) Load(ctx context.Context) (*models.Document, error) {
	start := time.Now()
	doc, err := s.next.Load(ctx)
	s.m.ObserveStore(s.backend, "load", start, err)
	return doc, err
}

func (s *instrumentedStore) Save(ctx context.Context, doc *models.Document) error {
	start := time.Now()
	err := s.next.Save(ctx, doc)
	s.m.ObserveStore(s.backend, "save", start, err)
	return err
}

func (s *instrumentedStore) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	start := time.Now()
	var fnErr error
	err := s.next.Update(ctx, func(doc *models.Document) error {
		fnErr = fn(doc)
		return fnErr
	})
	// validation failures from fn are not storage errors
	if err != nil && err == fnErr {
		s.m.ObserveStore(s.backend, "update", start, nil)
	} else {
		s.m.ObserveStore(s.backend, "update", start, err)
	}
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
