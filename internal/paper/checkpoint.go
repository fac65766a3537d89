package paper

import (
	"encoding/json"
	"fmt"
	"sort"

	"algotrade-core/internal/domain"
)

// Checkpoint is the full serialized engine state. It round-trips
// exactly through JSON, and restoring it leaves an engine operationally
// indistinguishable from the one it was taken from.
type Checkpoint struct {
	Account   domain.Account      `json:"account"`
	Positions CheckpointPositions `json:"positions"`
	Orders    CheckpointOrders    `json:"orders"`
}

// CheckpointPositions groups positions by asset class, matching the
// paper-trading persistence record.
type CheckpointPositions struct {
	Stocks  []domain.Position `json:"stocks"`
	Options []domain.Position `json:"options"`
	Cryptos []domain.Position `json:"cryptos"`
}

// CheckpointOrders carries all orders plus the id counter.
type CheckpointOrders struct {
	Orders []domain.Order `json:"orders"`
	NextID int            `json:"next_id"`
}

// Checkpoint captures the engine state atomically.
func (e *Engine) Checkpoint() Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.account.Equity = e.equityLocked()

	cp := Checkpoint{
		Account: e.account,
		Positions: CheckpointPositions{
			Stocks:  []domain.Position{},
			Options: []domain.Position{},
			Cryptos: []domain.Position{},
		},
		Orders: CheckpointOrders{
			Orders: make([]domain.Order, 0, len(e.orderSeq)),
			NextID: e.nextID,
		},
	}

	// Orders in placement order, positions sorted by symbol, so the
	// serialized form is deterministic.
	for _, id := range e.orderSeq {
		cp.Orders.Orders = append(cp.Orders.Orders, *e.orders[id])
	}

	symbols := make([]string, 0, len(e.positions))
	for sym := range e.positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		pos := *e.positions[sym]
		switch domain.SymbolType(sym) {
		case domain.AssetOption:
			cp.Positions.Options = append(cp.Positions.Options, pos)
		case domain.AssetCrypto:
			cp.Positions.Cryptos = append(cp.Positions.Cryptos, pos)
		default:
			cp.Positions.Stocks = append(cp.Positions.Stocks, pos)
		}
	}

	return cp
}

// Restore replaces the engine state with the checkpoint atomically.
func (e *Engine) Restore(cp Checkpoint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.account = cp.Account
	e.positions = make(map[string]*domain.Position)
	for _, group := range [][]domain.Position{cp.Positions.Stocks, cp.Positions.Options, cp.Positions.Cryptos} {
		for _, pos := range group {
			p := pos
			e.positions[p.Symbol] = &p
		}
	}

	e.orders = make(map[int]*domain.Order, len(cp.Orders.Orders))
	e.orderSeq = e.orderSeq[:0]
	for _, order := range cp.Orders.Orders {
		o := order
		e.orders[o.ID] = &o
		e.orderSeq = append(e.orderSeq, o.ID)
	}
	e.nextID = cp.Orders.NextID
}

// MarshalCheckpoint serializes a checkpoint to JSON.
func MarshalCheckpoint(cp Checkpoint) ([]byte, error) {
	data, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}

// UnmarshalCheckpoint deserializes a checkpoint from JSON.
func UnmarshalCheckpoint(data []byte) (Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return cp, nil
}
