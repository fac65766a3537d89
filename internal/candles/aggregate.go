package candles

import (
	"time"

	"algotrade-core/internal/domain"
)

// Aggregate resamples a sorted base series into windows of iv. Each
// output candle covers [windowStart, windowStart+iv) and is built as
// open=first, high=max, low=min, close=last, volume=sum over the base
// candles falling in the window. Windows with no base candles produce
// no output.
func Aggregate(base Series, iv domain.Interval) (Series, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return nil, nil
	}

	step := iv.Seconds()
	var out Series
	var cur *domain.Candle
	var curWindow int64 = -1

	for _, c := range base {
		window := c.Timestamp.Unix() / step * step
		if cur == nil || window != curWindow {
			if cur != nil {
				out = append(out, *cur)
			}
			agg := c
			agg.Timestamp = time.Unix(window, 0).UTC()
			cur = &agg
			curWindow = window
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	out = append(out, *cur)

	return out, nil
}
