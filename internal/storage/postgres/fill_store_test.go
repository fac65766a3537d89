package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/storage"
	"algotrade-core/internal/storage/postgres"
)

func testFill(id, symbol string, ts time.Time) domain.FillEvent {
	return domain.FillEvent{
		ID:          id,
		OrderID:     1,
		Symbol:      symbol,
		Side:        domain.SideBuy,
		Quantity:    10,
		FilledPrice: 140.5,
		FilledTime:  ts,
	}
}

func TestFillStore_InsertAndGetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewFillStore(pool)
	base := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, testFill("fill-2", "AAPL", base.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, testFill("fill-1", "AAPL", base)))
	require.NoError(t, store.Insert(ctx, testFill("fill-3", "MSFT", base)))

	fills, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "fill-1", fills[0].ID)
	assert.Equal(t, "fill-2", fills[1].ID)
	assert.Equal(t, domain.SideBuy, fills[0].Side)
	assert.InDelta(t, 140.5, fills[0].FilledPrice, 0.0001)
	assert.True(t, fills[0].FilledTime.Equal(base))
}

func TestFillStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewFillStore(pool)

	f := testFill("dup-fill", "AAPL", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, f))
	assert.ErrorIs(t, store.Insert(ctx, f), storage.ErrDuplicateKey)
}

func TestFillStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewFillStore(pool)
	base := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		require.NoError(t, store.Insert(ctx, testFill(id, "AAPL", base.Add(time.Duration(i)*time.Hour))))
	}

	fills, err := store.GetByTimeRange(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, fills, 2)
}
