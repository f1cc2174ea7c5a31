package server

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// failingStore reports every operation as unavailable.
type failingStore struct{}

func (failingStore) Load(context.Context) (*models.Document, error) {
	return nil, fmt.Errorf("%w: disk gone", storage.ErrUnavailable)
}

func (failingStore) Save(context.Context, *models.Document) error {
	return fmt.Errorf("%w: disk gone", storage.ErrUnavailable)
}

func (failingStore) Update(context.Context, func(*models.Document) error) error {
	return fmt.Errorf("%w: disk gone", storage.ErrUnavailable)
}

func (failingStore) Close() error { return nil }
