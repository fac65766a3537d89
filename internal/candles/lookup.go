package candles

import (
	"errors"

	"algotrade-core/internal/domain"
)

// ErrNoPriceData is returned when a lookup is attempted on an empty series.
var ErrNoPriceData = errors.New("no price data available")

// At returns the candle at or immediately before the target Unix
// timestamp. If the series starts after the target, the first candle is
// returned. Returns ErrNoPriceData for an empty series.
func At(s Series, ts int64) (domain.Candle, error) {
	if len(s) == 0 {
		return domain.Candle{}, ErrNoPriceData
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Timestamp.Unix() <= ts {
			return s[i], nil
		}
	}
	return s[0], nil
}

// CloseAt returns the close price at or immediately before ts.
func CloseAt(s Series, ts int64) (float64, error) {
	c, err := At(s, ts)
	if err != nil {
		return 0, err
	}
	return c.Close, nil
}
