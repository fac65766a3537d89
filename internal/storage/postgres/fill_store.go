package postgres

import (
	"context"
	"fmt"
	"time"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
	"algotrade-core/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL.
type FillStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// WithMetrics enables query instrumentation and returns the store.
func (s *FillStore) WithMetrics(m *observability.Metrics) *FillStore {
	s.metrics = m
	return s
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// Insert adds a fill. Returns ErrDuplicateKey if the fill id exists.
func (s *FillStore) Insert(ctx context.Context, fill domain.FillEvent) error {
	if fill.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO fills (
			id, order_id, symbol, side, quantity, filled_price, filled_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	started := time.Now()
	_, err := s.pool.Exec(ctx, query,
		fill.ID,
		fill.OrderID,
		fill.Symbol,
		string(fill.Side),
		fill.Quantity,
		fill.FilledPrice,
		fill.FilledTime,
	)
	s.metrics.RecordDBQuery("postgres", "insert_fill", time.Since(started).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fill: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all fills for a symbol, ordered by fill time ASC.
func (s *FillStore) GetBySymbol(ctx context.Context, symbol string) ([]domain.FillEvent, error) {
	query := `
		SELECT id, order_id, symbol, side, quantity, filled_price, filled_time
		FROM fills
		WHERE symbol = $1
		ORDER BY filled_time ASC, order_id ASC
	`
	started := time.Now()
	rows, err := s.pool.Query(ctx, query, symbol)
	s.metrics.RecordDBQuery("postgres", "fills_by_symbol", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query fills by symbol: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetByTimeRange retrieves fills within [start, end] inclusive.
func (s *FillStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]domain.FillEvent, error) {
	query := `
		SELECT id, order_id, symbol, side, quantity, filled_price, filled_time
		FROM fills
		WHERE filled_time >= $1 AND filled_time <= $2
		ORDER BY filled_time ASC, order_id ASC
	`
	started := time.Now()
	rows, err := s.pool.Query(ctx, query, start, end)
	s.metrics.RecordDBQuery("postgres", "fills_by_time_range", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query fills by time range: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanFills(rows pgxRows) ([]domain.FillEvent, error) {
	var fills []domain.FillEvent
	for rows.Next() {
		var f domain.FillEvent
		var side string
		if err := rows.Scan(&f.ID, &f.OrderID, &f.Symbol, &side, &f.Quantity, &f.FilledPrice, &f.FilledTime); err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		f.Side = domain.Side(side)
		f.FilledTime = f.FilledTime.UTC()
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fills: %w", err)
	}
	return fills, nil
}
