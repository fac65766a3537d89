package domain

import (
	"fmt"
	"time"
)

// Candle is one OHLCV data point for a time window. Timestamp is the
// window start, UTC.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate checks the OHLC ordering invariant
// low <= min(open, close) <= max(open, close) <= high and volume >= 0.
func (c Candle) Validate() error {
	lo, hi := c.Open, c.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	if c.Low > lo || hi > c.High {
		return fmt.Errorf("candle at %s violates low <= open/close <= high: o=%g h=%g l=%g c=%g",
			c.Timestamp.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle at %s has negative volume %g", c.Timestamp.Format(time.RFC3339), c.Volume)
	}
	return nil
}

// IsPlaceholder reports whether the candle is a zero-valued filler.
func (c Candle) IsPlaceholder() bool {
	return c.Open == 0 && c.High == 0 && c.Low == 0 && c.Close == 0 && c.Volume == 0
}

// PlaceholderCandle returns a zero-valued candle used to pad batches for
// symbols whose data never arrived for a tick.
func PlaceholderCandle(ts time.Time) Candle {
	return Candle{Timestamp: ts.UTC()}
}
