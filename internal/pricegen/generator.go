// Package pricegen produces reproducible synthetic OHLCV series for
// testing strategies and the simulated execution engine without a live
// market. Series are derived from a per-symbol seeded random walk, so
// the same symbol always yields bit-identical data across generator
// instances and processes.
package pricegen

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/domain"
)

// ErrTooManyPoints is returned when a single request would generate
// more base points than the configured ceiling.
var ErrTooManyPoints = errors.New("requested range exceeds generation point ceiling")

const (
	// Base series resolution: one candle per minute, the finest unit
	// the generator produces. Coarser intervals are aggregated from it.
	baseStepSeconds = 60

	// DefaultMaxPoints bounds the base points a single request may
	// require.
	DefaultMaxPoints = 1_000_000

	// Prices never fall below this floor.
	floorPrice = 0.01
)

// DefaultEpoch anchors walk index zero when no epoch is configured.
var DefaultEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// walk is the retained random-walk state for one symbol. values[i] is
// the cumulative price change at absolute minute index offset+i, and
// rng continues the stream so extension reproduces exactly what a
// from-scratch generation would have produced.
type walk struct {
	rng       *rand.Rand
	values    []float64
	offset    int64
	basePrice float64
}

// Generator owns per-symbol RNG state and hands out deterministic
// series. Walk index zero corresponds to the configured epoch; two
// generators with the same epoch produce byte-identical series for the
// same symbol and range. Safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	epochIdx  int64
	maxPoints int
	walks     map[string]*walk
}

// Options configures a Generator.
type Options struct {
	// Epoch anchors the first generated point. Requests before the
	// epoch are clamped to it. Defaults to DefaultEpoch.
	Epoch time.Time

	// MaxPoints overrides DefaultMaxPoints when positive.
	MaxPoints int
}

// New creates a Generator.
func New(opts Options) *Generator {
	epoch := opts.Epoch
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Generator{
		epochIdx:  epoch.Unix() / baseStepSeconds,
		maxPoints: maxPoints,
		walks:     make(map[string]*walk),
	}
}

// seedFor derives a stable RNG seed from the symbol string.
func seedFor(symbol string) int64 {
	sum := sha256.Sum256([]byte(symbol))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// ensureLocked returns the walk for symbol, creating it when first seen.
func (g *Generator) ensureLocked(symbol string) *walk {
	w, ok := g.walks[symbol]
	if ok {
		return w
	}
	rng := rand.New(rand.NewSource(seedFor(symbol)))
	first := rng.Float64() - 0.499
	w = &walk{
		rng:       rng,
		values:    []float64{first},
		offset:    g.epochIdx,
		basePrice: 1000 * (first + 0.51),
	}
	g.walks[symbol] = w
	return w
}

// extendLocked grows the walk so it covers absolute index last,
// continuing the existing RNG stream. Previously generated values are
// never touched.
func (w *walk) extendLocked(last int64) {
	for w.offset+int64(len(w.values)) <= last {
		next := w.values[len(w.values)-1] + w.rng.Float64() - 0.499
		w.values = append(w.values, next)
	}
}

// candleAt builds the base minute candle for absolute index idx.
func (w *walk) candleAt(idx int64) domain.Candle {
	price := w.basePrice + w.values[idx-w.offset]
	if price < floorPrice {
		price = floorPrice
	}
	return domain.Candle{
		Timestamp: time.Unix(idx*baseStepSeconds, 0).UTC(),
		Open:      0.95 * price,
		High:      1.2 * price,
		Low:       0.8 * price,
		Close:     1.05 * price,
		Volume:    float64(int64(1000 * (price + 20))),
	}
}

func floorAlign(t time.Time, step int64) int64 {
	u := t.Unix()
	return u - u%step
}

func ceilAlign(t time.Time, step int64) int64 {
	u := t.Unix()
	if r := u % step; r != 0 {
		return u + step - r
	}
	return u
}

// History returns the OHLCV series for symbol over [start, end] at the
// requested interval. start rounds up to the next whole interval
// boundary and end rounds down to the last one; an inverted rounded
// range yields an empty series. Intervals finer than one minute are not
// supported. A request needing more than the configured point ceiling
// returns ErrTooManyPoints.
func (g *Generator) History(symbol string, iv domain.Interval, start, end time.Time) (candles.Series, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	if iv.Seconds() < baseStepSeconds {
		return nil, fmt.Errorf("%w: interval %s finer than generator base resolution", domain.ErrConfiguration, iv)
	}

	step := iv.Seconds()
	from := ceilAlign(start, step)
	to := floorAlign(end, step)
	if from > to {
		return nil, nil
	}

	startIdx := from / baseStepSeconds
	endIdx := to / baseStepSeconds
	if startIdx < g.epochIdx {
		startIdx = g.epochIdx
	}
	if endIdx < startIdx {
		return nil, nil
	}
	if endIdx-startIdx+1 > int64(g.maxPoints) {
		return nil, fmt.Errorf("%w: %d base points requested, ceiling %d",
			ErrTooManyPoints, endIdx-startIdx+1, g.maxPoints)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	w := g.ensureLocked(symbol)
	if grow := endIdx + 1 - w.offset - int64(len(w.values)); grow > int64(g.maxPoints) {
		return nil, fmt.Errorf("%w: extension of %d base points required, ceiling %d",
			ErrTooManyPoints, grow, g.maxPoints)
	}
	w.extendLocked(endIdx)

	// A trimmed prefix is gone for good; requests reaching into it are
	// clamped to the retained horizon.
	if startIdx < w.offset {
		startIdx = w.offset
	}

	base := make(candles.Series, 0, endIdx-startIdx+1)
	for idx := startIdx; idx <= endIdx; idx++ {
		base = append(base, w.candleAt(idx))
	}

	if step == baseStepSeconds {
		return base, nil
	}
	return candles.Aggregate(base, iv)
}

// LatestAt returns the base minute candle containing t.
func (g *Generator) LatestAt(symbol string, t time.Time) (domain.Candle, error) {
	idx := floorAlign(t, baseStepSeconds) / baseStepSeconds
	if idx < g.epochIdx {
		idx = g.epochIdx
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	w := g.ensureLocked(symbol)
	w.extendLocked(idx)
	if idx < w.offset {
		idx = w.offset
	}
	return w.candleAt(idx), nil
}

// Trim drops all but the most recent keep base points for symbol,
// bounding memory. The trimmed prefix is not reproducible afterwards;
// future extension continues the RNG stream unchanged.
func (g *Generator) Trim(symbol string, keep int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w, ok := g.walks[symbol]
	if !ok || keep <= 0 || len(w.values) <= keep {
		return
	}
	drop := len(w.values) - keep
	w.offset += int64(drop)
	w.values = append([]float64(nil), w.values[drop:]...)
}

// StoredPoints reports how many base points are retained for symbol.
func (g *Generator) StoredPoints(symbol string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	w, ok := g.walks[symbol]
	if !ok {
		return 0
	}
	return len(w.values)
}
