package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/storage"
)

func sampleCheckpoint() paper.Checkpoint {
	return paper.Checkpoint{
		Account: domain.Account{Cash: 5000, Equity: 12000, BuyingPower: 5000, Multiplier: 1},
		Positions: paper.CheckpointPositions{
			Stocks:  []domain.Position{{Symbol: "AAPL", Quantity: 50, AvgPrice: 140}},
			Options: []domain.Position{},
			Cryptos: []domain.Position{},
		},
		Orders: paper.CheckpointOrders{Orders: []domain.Order{}, NextID: 7},
	}
}

func TestCheckpointStore_SaveAndLoad(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	cp := sampleCheckpoint()
	require.NoError(t, store.Save(ctx, "live", cp))

	got, err := store.Load(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, cp.Account, got.Account)
	assert.Equal(t, cp.Positions.Stocks, got.Positions.Stocks)
	assert.Equal(t, cp.Orders.NextID, got.Orders.NextID)
}

func TestCheckpointStore_SaveOverwrites(t *testing.T) {
	store := NewCheckpointStore()
	ctx := context.Background()

	cp := sampleCheckpoint()
	require.NoError(t, store.Save(ctx, "live", cp))

	cp.Account.Cash = 1
	require.NoError(t, store.Save(ctx, "live", cp))

	got, err := store.Load(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Account.Cash)
}

func TestCheckpointStore_LoadMissing(t *testing.T) {
	store := NewCheckpointStore()
	_, err := store.Load(context.Background(), "never-saved")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheckpointStore_EmptySessionRejected(t *testing.T) {
	store := NewCheckpointStore()
	err := store.Save(context.Background(), "", sampleCheckpoint())
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
