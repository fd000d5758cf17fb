package store

import (
	"context"
	"errors"
	"sync"

	"github.com/i474232898/forecast-sync/internal/daytime"
	"github.com/i474232898/forecast-sync/internal/weather"
)

var (
	// ErrInvalidDataset is returned when a dataset has unnormalized or non-contiguous dates.
	ErrInvalidDataset = errors.New("dataset dates must be normalized and contiguous")
)

// MemoryStore is a concurrency-safe in-memory forecast store. The installed
// dataset is never mutated; ReplaceAll swaps the reference under the write lock.
type MemoryStore struct {
	mu      sync.RWMutex
	dataset weather.Dataset

	norm *daytime.Normalizer
}

func NewMemoryStore(norm *daytime.Normalizer) *MemoryStore {
	return &MemoryStore{
		dataset: weather.Dataset{},
		norm:    norm,
	}
}

// ReplaceAll installs ds in place of the current dataset.
func (s *MemoryStore) ReplaceAll(_ context.Context, ds weather.Dataset) error {
	if !ds.Valid() {
		return ErrInvalidDataset
	}

	next := make(weather.Dataset, len(ds))
	copy(next, ds)

	s.mu.Lock()
	s.dataset = next
	s.mu.Unlock()
	return nil
}

// QueryFromToday returns the stored records dated today or later, ascending.
func (s *MemoryStore) QueryFromToday(_ context.Context) (weather.Dataset, error) {
	today := s.norm.TodayKey()

	s.mu.RLock()
	current := s.dataset
	s.mu.RUnlock()

	return current.From(today), nil
}

// IsEmpty reports whether no dataset has been stored yet.
func (s *MemoryStore) IsEmpty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dataset) == 0, nil
}

var _ weather.Store = (*MemoryStore)(nil)
