// Package candles provides ordered OHLCV series with explicit windowed
// aggregation and price lookup, replacing dataframe-style resampling
// with auditable first/max/min/last/sum semantics.
package candles

import (
	"sort"
	"time"

	"algotrade-core/internal/domain"
)

// Series is a sequence of candles ordered by timestamp ascending.
type Series []domain.Candle

// Sort orders the series by timestamp ascending, in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Slice returns the candles with timestamps in [start, end], assuming
// the series is sorted.
func (s Series) Slice(start, end time.Time) Series {
	lo := sort.Search(len(s), func(i int) bool {
		return !s[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(s), func(i int) bool {
		return s[i].Timestamp.After(end)
	})
	return s[lo:hi]
}

// Last returns the final candle and true, or false for an empty series.
func (s Series) Last() (domain.Candle, bool) {
	if len(s) == 0 {
		return domain.Candle{}, false
	}
	return s[len(s)-1], true
}
