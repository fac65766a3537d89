// Package storage defines persistence interfaces for trading sessions:
// paper-trading checkpoints, candle history, and fill audit records.
// Implementations live in the memory, postgres and clickhouse
// subpackages.
package storage

import (
	"context"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/paper"
)

// CheckpointStore persists paper-trading checkpoints by session name.
type CheckpointStore interface {
	// Save stores or replaces the checkpoint for a session.
	Save(ctx context.Context, session string, cp paper.Checkpoint) error

	// Load retrieves the checkpoint for a session. Returns ErrNotFound
	// if the session has never been saved.
	Load(ctx context.Context, session string) (paper.Checkpoint, error)
}

// CandleStore persists candle history per symbol and interval.
type CandleStore interface {
	// InsertBulk stores a batch of candles. Re-inserting a
	// (symbol, interval, timestamp) overwrites the previous row.
	InsertBulk(ctx context.Context, symbol string, iv domain.Interval, batch []domain.Candle) error

	// GetRange retrieves candles within [start, end] inclusive,
	// ordered by timestamp ASC.
	GetRange(ctx context.Context, symbol string, iv domain.Interval, start, end time.Time) (candles.Series, error)
}

// FillStore records fill events for audit.
type FillStore interface {
	// Insert adds a fill. Returns ErrDuplicateKey if the fill id exists.
	Insert(ctx context.Context, fill domain.FillEvent) error

	// GetBySymbol retrieves all fills for a symbol, ordered by fill time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.FillEvent, error)

	// GetByTimeRange retrieves fills within [start, end] inclusive.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]domain.FillEvent, error)
}
