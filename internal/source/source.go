// Package source defines the boundary to market data and trading
// vendors. The core never talks to a vendor protocol directly; it
// consumes these interfaces and the error taxonomy they return.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/domain"
)

// ErrNotSupported is returned when the active source does not implement
// a capability. Callers must not retry it.
var ErrNotSupported = errors.New("operation not supported by source")

// DataSource supplies market data.
type DataSource interface {
	// PriceHistory returns candles for [start, end] at the given
	// interval. May fail with a TransientError.
	PriceHistory(ctx context.Context, symbol string, iv domain.Interval, start, end time.Time) (candles.Series, error)

	// LatestPrice returns the most recent candle for symbol.
	LatestPrice(ctx context.Context, symbol string) (domain.Candle, error)

	// MarketHours returns the trading session for the calendar day
	// containing date.
	MarketHours(ctx context.Context, date time.Time) (domain.MarketHours, error)
}

// TradeSink accepts order flow. Live vendors route it to a brokerage;
// the simulated path is the paper engine instead.
type TradeSink interface {
	PlaceOrder(ctx context.Context, side domain.Side, symbol string, quantity, limitPrice float64, tif domain.TimeInForce) (int, error)
	CancelOrder(ctx context.Context, orderID int) error
}

// TransientError marks an upstream failure that is safe to retry. The
// fetch cycle for the affected symbol is skipped, never the whole tick.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil for a nil err.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
