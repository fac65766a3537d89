package clickhouse

import (
	"context"
	"fmt"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
	"algotrade-core/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse. The
// backing table is a ReplacingMergeTree keyed by (symbol, interval,
// ts), so re-inserting a timestamp supersedes the previous row.
type CandleStore struct {
	conn    *Conn
	metrics *observability.Metrics
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// WithMetrics enables query instrumentation and returns the store.
func (s *CandleStore) WithMetrics(m *observability.Metrics) *CandleStore {
	s.metrics = m
	return s
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk stores a batch of candles.
func (s *CandleStore) InsertBulk(ctx context.Context, symbol string, iv domain.Interval, batch []domain.Candle) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if err := iv.Validate(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	started := time.Now()
	b, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (symbol, interval, ts, open, high, low, close, volume)
	`)
	if err != nil {
		s.metrics.RecordDBQuery("clickhouse", "insert_candles", time.Since(started).Seconds(), err)
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range batch {
		err = b.Append(
			symbol, iv.String(), c.Timestamp.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			s.metrics.RecordDBQuery("clickhouse", "insert_candles", time.Since(started).Seconds(), err)
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	err = b.Send()
	s.metrics.RecordDBQuery("clickhouse", "insert_candles", time.Since(started).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetRange(ctx context.Context, symbol string, iv domain.Interval, start, end time.Time) (candles.Series, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT ts, open, high, low, close, volume
		FROM candles FINAL
		WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`
	started := time.Now()
	rows, err := s.conn.Query(ctx, query, symbol, iv.String(), start.UTC(), end.UTC())
	s.metrics.RecordDBQuery("clickhouse", "get_range", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var result candles.Series
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}

	return result, nil
}
