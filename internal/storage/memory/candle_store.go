package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]domain.Candle // keyed by (symbol, interval, timestamp)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{data: make(map[string]domain.Candle)}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

func candleKey(symbol string, iv domain.Interval, ts time.Time) string {
	return fmt.Sprintf("%s|%s|%d", symbol, iv, ts.Unix())
}

// InsertBulk stores a batch of candles, overwriting existing timestamps.
func (s *CandleStore) InsertBulk(_ context.Context, symbol string, iv domain.Interval, batch []domain.Candle) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if err := iv.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range batch {
		s.data[candleKey(symbol, iv, c.Timestamp)] = c
	}
	return nil
}

// GetRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetRange(_ context.Context, symbol string, iv domain.Interval, start, end time.Time) (candles.Series, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result candles.Series
	prefix := fmt.Sprintf("%s|%s|", symbol, iv)
	for key, c := range s.data {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		result = append(result, c)
	}
	result.Sort()
	return result, nil
}
