// Package memory provides in-memory storage implementations, used in
// tests and for sessions that do not need durability.
package memory

import (
	"context"
	"sync"

	"algotrade-core/internal/paper"
	"algotrade-core/internal/storage"
)

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{data: make(map[string][]byte)}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Save stores or replaces the checkpoint for a session. The checkpoint
// is kept serialized so callers cannot alias the stored state.
func (s *CheckpointStore) Save(_ context.Context, session string, cp paper.Checkpoint) error {
	if session == "" {
		return storage.ErrInvalidInput
	}
	data, err := paper.MarshalCheckpoint(cp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session] = data
	return nil
}

// Load retrieves the checkpoint for a session.
func (s *CheckpointStore) Load(_ context.Context, session string) (paper.Checkpoint, error) {
	s.mu.RLock()
	data, ok := s.data[session]
	s.mu.RUnlock()

	if !ok {
		return paper.Checkpoint{}, storage.ErrNotFound
	}
	return paper.UnmarshalCheckpoint(data)
}
