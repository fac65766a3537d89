// Package paper implements the simulated execution engine: order
// lifecycle, position and account bookkeeping, a commission model, and
// checkpointing. No real market interaction ever happens here; prices
// come from a pluggable lookup collaborator.
package paper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
)

// Business-rule rejections. Both leave the engine unmutated; a
// rejected buy stays OPEN for later re-evaluation.
var (
	ErrInsufficientFunds    = errors.New("insufficient buying power")
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrOrderNotFound is returned for an unknown order id.
	ErrOrderNotFound = errors.New("order not found")
)

// Positions below this quantity are treated as fully closed.
const positionEpsilon = 1e-8

// PriceLookup supplies the current price for a symbol. In tests this is
// the deterministic generator; in live paper trading it is a real data
// source.
type PriceLookup interface {
	LatestPrice(ctx context.Context, symbol string) (domain.Candle, error)
}

// FillFunc receives fill events as orders execute.
type FillFunc func(domain.FillEvent)

// Engine is the simulated execution engine. All order, position and
// account state is owned exclusively by the engine and mutated only
// under its lock, so Place/Evaluate/Cancel never interleave their
// read-modify-write sequences.
type Engine struct {
	mu sync.Mutex

	account    domain.Account
	positions  map[string]*domain.Position
	orders     map[int]*domain.Order
	orderSeq   []int
	nextID     int
	commission Commission

	lookup  PriceLookup
	onFill  FillFunc
	nowFn   func() time.Time
	logger  *log.Logger
	metrics *observability.Metrics
}

// Options configures an Engine.
type Options struct {
	// InitialCash seeds cash, equity and buying power. Defaults to
	// 1,000,000 when zero.
	InitialCash float64

	// Multiplier is the account leverage multiplier. Defaults to 1.
	Multiplier float64

	Commission Commission
	Lookup     PriceLookup
	OnFill     FillFunc

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger  *log.Logger
	Metrics *observability.Metrics
}

// NewEngine creates an engine with a fresh account.
func NewEngine(opts Options) *Engine {
	cash := opts.InitialCash
	if cash == 0 {
		cash = 1_000_000
	}
	mult := opts.Multiplier
	if mult == 0 {
		mult = 1
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		account: domain.Account{
			Cash:        cash,
			Equity:      cash,
			BuyingPower: cash,
			Multiplier:  mult,
		},
		positions:  make(map[string]*domain.Position),
		orders:     make(map[int]*domain.Order),
		commission: opts.Commission,
		lookup:     opts.Lookup,
		onFill:     opts.OnFill,
		nowFn:      nowFn,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Place creates an OPEN limit order and returns its id. For buys the
// order's worst-case cost is reserved from buying power immediately; no
// price lookup happens until Evaluate.
func (e *Engine) Place(side domain.Side, symbol string, quantity, limitPrice float64, tif domain.TimeInForce) (int, error) {
	if side != domain.SideBuy && side != domain.SideSell {
		return 0, fmt.Errorf("%w: unknown order side %q", domain.ErrConfiguration, side)
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: order quantity must be positive, got %g", domain.ErrConfiguration, quantity)
	}
	if limitPrice < 0 {
		return 0, fmt.Errorf("%w: limit price must be non-negative, got %g", domain.ErrConfiguration, limitPrice)
	}
	if tif == "" {
		tif = domain.GTC
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	order := &domain.Order{
		ID:          e.nextID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		LimitPrice:  limitPrice,
		TimeInForce: tif,
		Status:      domain.OrderOpen,
	}
	e.orders[order.ID] = order
	e.orderSeq = append(e.orderSeq, order.ID)
	e.nextID++

	if side == domain.SideBuy {
		e.account.BuyingPower -= quantity * limitPrice
	}

	e.logger.Printf("[paper] placed order %d: %s %g %s limit %g", order.ID, side, quantity, symbol, limitPrice)
	e.metrics.RecordOrderPlaced()
	return order.ID, nil
}

// Evaluate checks an OPEN order against the current price and fills it
// when marketable. Non-marketable buys and funding rejections leave the
// order OPEN; position rejections on sells leave all state untouched.
// Terminal orders are a no-op.
func (e *Engine) Evaluate(ctx context.Context, orderID int) error {
	e.mu.Lock()
	order, ok := e.orders[orderID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if order.Terminal() {
		e.mu.Unlock()
		return nil
	}
	symbol := order.Symbol
	e.mu.Unlock()

	// Price lookup happens outside the lock; it may hit a slow source.
	latest, err := e.lookup.LatestPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("lookup price for %s: %w", symbol, err)
	}
	price := latest.Close

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-check: the order may have been cancelled while unlocked.
	if order.Terminal() {
		return nil
	}

	if order.Side == domain.SideBuy {
		return e.fillBuyLocked(order, price)
	}
	return e.fillSellLocked(order, price)
}

func (e *Engine) fillBuyLocked(order *domain.Order, price float64) error {
	qty := order.Quantity
	actualCost := e.commission.Apply(price*qty, domain.SideBuy)
	reservation := order.LimitPrice * qty

	// The reservation is still held, so compare against buying power
	// with it added back.
	if e.account.BuyingPower+reservation < actualCost {
		e.logger.Printf("[paper] order %d rejected: cost %.2f exceeds buying power %.2f",
			order.ID, actualCost, e.account.BuyingPower+reservation)
		e.metrics.RecordOrderRejected("insufficient_funds")
		return fmt.Errorf("%w: order %d needs %.2f", ErrInsufficientFunds, order.ID, actualCost)
	}
	if order.LimitPrice < price {
		e.logger.Printf("[paper] order %d not marketable: limit %.2f below price %.2f",
			order.ID, order.LimitPrice, price)
		return nil
	}

	e.upsertPositionLocked(order.Symbol, qty, price)
	e.account.Cash -= actualCost
	e.account.BuyingPower += reservation
	e.account.BuyingPower -= actualCost
	e.finishFillLocked(order, price)
	return nil
}

func (e *Engine) fillSellLocked(order *domain.Order, price float64) error {
	qty := order.Quantity
	pos, ok := e.positions[order.Symbol]
	if !ok || pos.Quantity+positionEpsilon < qty {
		e.logger.Printf("[paper] order %d rejected: cannot sell %g %s, not owned",
			order.ID, qty, order.Symbol)
		e.metrics.RecordOrderRejected("insufficient_position")
		return fmt.Errorf("%w: cannot sell %g %s", ErrInsufficientPosition, qty, order.Symbol)
	}

	pos.Quantity -= qty
	if pos.Quantity < positionEpsilon {
		delete(e.positions, order.Symbol)
	}
	proceeds := e.commission.Apply(price*qty, domain.SideSell)
	e.account.Cash += proceeds
	e.account.BuyingPower += proceeds
	e.finishFillLocked(order, price)
	return nil
}

// upsertPositionLocked adds a fill to a position, computing the
// quantity-weighted average price.
func (e *Engine) upsertPositionLocked(symbol string, qty, price float64) {
	pos, ok := e.positions[symbol]
	if !ok {
		e.positions[symbol] = &domain.Position{Symbol: symbol, Quantity: qty, AvgPrice: price}
		return
	}
	pos.AvgPrice = (pos.AvgPrice*pos.Quantity + price*qty) / (pos.Quantity + qty)
	pos.Quantity += qty
}

func (e *Engine) finishFillLocked(order *domain.Order, price float64) {
	now := e.nowFn()
	order.Status = domain.OrderFilled
	order.FilledPrice = &price
	qty := order.Quantity
	order.FilledQuantity = &qty
	order.FilledTime = &now
	e.account.Equity = e.equityLocked()

	e.logger.Printf("[paper] order %d filled: %s %g %s at %.2f", order.ID, order.Side, qty, order.Symbol, price)
	e.metrics.RecordOrderFilled(e.account.Equity)

	if e.onFill != nil {
		e.onFill(domain.FillEvent{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			Symbol:      order.Symbol,
			Side:        order.Side,
			Quantity:    qty,
			FilledPrice: price,
			FilledTime:  now,
		})
	}
}

// Cancel moves an OPEN order to CANCELLED and releases its buying-power
// reservation. Terminal orders are a no-op.
func (e *Engine) Cancel(orderID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if order.Terminal() {
		return nil
	}

	order.Status = domain.OrderCancelled
	if order.Side == domain.SideBuy {
		e.account.BuyingPower += order.Quantity * order.LimitPrice
	}
	e.logger.Printf("[paper] cancelled order %d", orderID)
	e.metrics.RecordOrderCancelled()
	return nil
}

// EvaluateOpen evaluates every OPEN order, oldest first. Rejections are
// logged and do not stop evaluation of the remaining orders.
func (e *Engine) EvaluateOpen(ctx context.Context) {
	e.mu.Lock()
	var open []int
	for _, id := range e.orderSeq {
		if !e.orders[id].Terminal() {
			open = append(open, id)
		}
	}
	e.mu.Unlock()

	for _, id := range open {
		if err := e.Evaluate(ctx, id); err != nil {
			e.logger.Printf("[paper] evaluate order %d: %v", id, err)
		}
	}
}

// equityLocked computes cash plus position book value times the account
// multiplier.
func (e *Engine) equityLocked() float64 {
	eq := e.account.Cash
	for _, pos := range e.positions {
		eq += pos.AvgPrice * pos.Quantity * e.account.Multiplier
	}
	return eq
}

// RecomputeEquity refreshes and returns the account equity.
func (e *Engine) RecomputeEquity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account.Equity = e.equityLocked()
	return e.account.Equity
}

// Account returns a snapshot of the account with equity recomputed.
func (e *Engine) Account() domain.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account.Equity = e.equityLocked()
	return e.account
}

// Position returns the open position for symbol, if any.
func (e *Engine) Position(symbol string) (domain.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[symbol]
	if !ok {
		return domain.Position{}, false
	}
	return *pos, true
}

// Order returns a copy of the order with the given id.
func (e *Engine) Order(orderID int) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	order, ok := e.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	return *order, nil
}
