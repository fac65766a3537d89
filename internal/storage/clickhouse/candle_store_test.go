package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/storage"
	"algotrade-core/internal/storage/clickhouse"
)

func candleBatch(base time.Time, n int) []domain.Candle {
	batch := make([]domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		p := 100.0 + float64(i)
		batch = append(batch, domain.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      0.95 * p, High: 1.2 * p, Low: 0.8 * p, Close: 1.05 * p,
			Volume: 1000 + float64(i),
		})
	}
	return batch
}

func TestCandleStore_InsertBulkAndGetRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewCandleStore(conn)
	min1 := domain.MustInterval(domain.UnitMin, 1)
	base := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, "AAPL", min1, candleBatch(base, 10)))

	got, err := store.GetRange(ctx, "AAPL", min1, base.Add(2*time.Minute), base.Add(5*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].Timestamp.Equal(base.Add(2*time.Minute)))
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Timestamp.After(got[i-1].Timestamp), "not sorted ascending")
	}
	assert.InDelta(t, 1.05*102.0, got[0].Close, 0.0001)
}

func TestCandleStore_SymbolsAndIntervalsIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewCandleStore(conn)
	min1 := domain.MustInterval(domain.UnitMin, 1)
	min5 := domain.MustInterval(domain.UnitMin, 5)
	base := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, "AAPL", min1, candleBatch(base, 5)))
	require.NoError(t, store.InsertBulk(ctx, "MSFT", min1, candleBatch(base, 5)))

	got, err := store.GetRange(ctx, "AAPL", min5, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.GetRange(ctx, "MSFT", min1, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCandleStore_ReinsertSupersedes(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewCandleStore(conn)
	min1 := domain.MustInterval(domain.UnitMin, 1)
	base := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, "AAPL", min1, candleBatch(base, 1)))

	updated := candleBatch(base, 1)
	updated[0].Close = 999
	require.NoError(t, store.InsertBulk(ctx, "AAPL", min1, updated))

	// FINAL collapses ReplacingMergeTree duplicates at read time.
	got, err := store.GetRange(ctx, "AAPL", min1, base, base)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 999.0, got[0].Close)
}

func TestCandleStore_EmptyBatchIsNoop(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)
	min1 := domain.MustInterval(domain.UnitMin, 1)
	require.NoError(t, store.InsertBulk(context.Background(), "AAPL", min1, nil))
}

func TestCandleStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewCandleStore(conn)
	min1 := domain.MustInterval(domain.UnitMin, 1)
	assert.ErrorIs(t, store.InsertBulk(context.Background(), "", min1, nil), storage.ErrInvalidInput)
}
