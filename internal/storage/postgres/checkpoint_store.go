package postgres

import (
	"context"
	"fmt"
	"time"

	"algotrade-core/internal/observability"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/storage"
)

// CheckpointStore implements storage.CheckpointStore using PostgreSQL.
// The checkpoint record is stored as a single JSONB value per session,
// replaced atomically on each save.
type CheckpointStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// WithMetrics enables query instrumentation and returns the store.
func (s *CheckpointStore) WithMetrics(m *observability.Metrics) *CheckpointStore {
	s.metrics = m
	return s
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Save stores or replaces the checkpoint for a session.
func (s *CheckpointStore) Save(ctx context.Context, session string, cp paper.Checkpoint) error {
	if session == "" {
		return storage.ErrInvalidInput
	}
	data, err := paper.MarshalCheckpoint(cp)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO checkpoints (session, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session) DO UPDATE
		SET state = EXCLUDED.state, updated_at = now()
	`
	started := time.Now()
	_, err = s.pool.Exec(ctx, query, session, data)
	s.metrics.RecordDBQuery("postgres", "save_checkpoint", time.Since(started).Seconds(), err)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for a session.
func (s *CheckpointStore) Load(ctx context.Context, session string) (paper.Checkpoint, error) {
	query := `SELECT state FROM checkpoints WHERE session = $1`

	var data []byte
	started := time.Now()
	err := s.pool.QueryRow(ctx, query, session).Scan(&data)
	qerr := err
	if isNotFoundError(qerr) {
		// A missing session is an expected outcome, not a query error.
		qerr = nil
	}
	s.metrics.RecordDBQuery("postgres", "load_checkpoint", time.Since(started).Seconds(), qerr)
	if err != nil {
		if isNotFoundError(err) {
			return paper.Checkpoint{}, storage.ErrNotFound
		}
		return paper.Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}

	return paper.UnmarshalCheckpoint(data)
}
