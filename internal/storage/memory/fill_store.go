package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
type FillStore struct {
	mu   sync.RWMutex
	data map[string]domain.FillEvent // keyed by fill id
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{data: make(map[string]domain.FillEvent)}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// Insert adds a fill. Returns ErrDuplicateKey if the fill id exists.
func (s *FillStore) Insert(_ context.Context, fill domain.FillEvent) error {
	if fill.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[fill.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[fill.ID] = fill
	return nil
}

// GetBySymbol retrieves all fills for a symbol, ordered by fill time ASC.
func (s *FillStore) GetBySymbol(_ context.Context, symbol string) ([]domain.FillEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FillEvent
	for _, f := range s.data {
		if f.Symbol == symbol {
			result = append(result, f)
		}
	}
	sortFills(result)
	return result, nil
}

// GetByTimeRange retrieves fills within [start, end] inclusive.
func (s *FillStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]domain.FillEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FillEvent
	for _, f := range s.data {
		if f.FilledTime.Before(start) || f.FilledTime.After(end) {
			continue
		}
		result = append(result, f)
	}
	sortFills(result)
	return result, nil
}

func sortFills(fills []domain.FillEvent) {
	sort.Slice(fills, func(i, j int) bool {
		if !fills[i].FilledTime.Equal(fills[j].FilledTime) {
			return fills[i].FilledTime.Before(fills[j].FilledTime)
		}
		return fills[i].OrderID < fills[j].OrderID
	})
}
