// Package reconcile merges asynchronous per-symbol market updates into
// consolidated batches. Push-style data sources deliver one symbol at a
// time; strategy code wants one complete map per tick. The reconciler
// buffers partial arrivals, pads stragglers with placeholders after a
// bounded timeout, and guarantees exactly one delivery per tick.
package reconcile

import (
	"log"
	"sync"
	"time"

	"algotrade-core/internal/clock"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
)

// Batch is one consolidated tick of market data.
type Batch struct {
	// Timestamp is the logical tick time shared by all candles.
	Timestamp time.Time

	// Candles maps symbol to its candle for this tick. Symbols that
	// never arrived before the timeout carry zero-valued placeholders.
	Candles map[string]domain.Candle

	// TimedOut reports whether the batch was flushed by the timeout
	// rather than by full arrival.
	TimedOut bool
}

// DeliverFunc receives completed batches. It is called with the
// reconciler's lock held, so it must not call back into Submit.
type DeliverFunc func(Batch)

// DefaultTimeout bounds how long a tick waits for stragglers.
const DefaultTimeout = time.Second

// Reconciler accumulates partial per-symbol arrivals into batches. At
// most one tick is in flight at a time; an arrival for a newer tick
// flushes the previous one first.
type Reconciler struct {
	watch   domain.WatchList
	timeout time.Duration
	deliver DeliverFunc
	logger  *log.Logger
	metrics *observability.Metrics

	mu            sync.Mutex
	active        bool
	tickTime      time.Time
	lastDelivered time.Time
	needed        map[string]struct{}
	buffer        map[string]domain.Candle
	timer         *time.Timer
	generation    uint64
}

// Options configures a Reconciler.
type Options struct {
	// Watch determines which symbols are expected at each tick, based
	// on whether the tick timestamp is a boundary of their interval.
	Watch domain.WatchList

	// Timeout bounds the wait for stragglers, measured from the first
	// arrival of a tick. Defaults to DefaultTimeout.
	Timeout time.Duration

	Deliver DeliverFunc
	Logger  *log.Logger

	// Metrics is optional.
	Metrics *observability.Metrics
}

// New creates a Reconciler. Deliver must be set.
func New(opts Options) (*Reconciler, error) {
	if opts.Deliver == nil {
		return nil, domain.ErrConfiguration
	}
	if err := opts.Watch.Validate(); err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		watch:   opts.Watch,
		timeout: timeout,
		deliver: opts.Deliver,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Submit merges one symbol's candle into the current tick. The first
// arrival of a tick captures the expected symbol set and arms the
// timeout; the arrival that empties the set triggers delivery.
func (r *Reconciler) Submit(symbol string, candle domain.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.watch[symbol]; !ok {
		r.logger.Printf("[reconcile] dropping update for unwatched symbol %s", symbol)
		return
	}

	ts := candle.Timestamp.UTC()

	// A straggler for an already-delivered tick must not re-open it;
	// its tick was flushed (padded) and delivered exactly once.
	if !r.lastDelivered.IsZero() && !ts.After(r.lastDelivered) {
		r.logger.Printf("[reconcile] dropping late %s update for delivered tick %s", symbol, ts)
		return
	}

	if r.active && !ts.Equal(r.tickTime) {
		if ts.Before(r.tickTime) {
			r.logger.Printf("[reconcile] dropping out-of-order %s update for tick %s", symbol, ts)
			return
		}
		// A newer tick started arriving before the old one resolved.
		r.logger.Printf("[reconcile] tick %s superseded by %s, flushing early", r.tickTime, ts)
		r.flushLocked(true)
	}

	if !r.active {
		r.startTickLocked(ts)
	}

	r.buffer[symbol] = candle
	delete(r.needed, symbol)

	if len(r.needed) == 0 {
		r.flushLocked(false)
	}
}

// startTickLocked begins a new tick at ts: computes the expected symbol
// set from the watch configuration and arms the timeout timer.
func (r *Reconciler) startTickLocked(ts time.Time) {
	r.active = true
	r.tickTime = ts
	r.buffer = make(map[string]domain.Candle)
	r.needed = make(map[string]struct{})
	for symbol, entry := range r.watch {
		if clock.IsBoundary(ts, entry.Interval) {
			r.needed[symbol] = struct{}{}
		}
	}

	gen := r.generation
	r.timer = time.AfterFunc(r.timeout, func() { r.onTimeout(gen) })
}

// onTimeout flushes the tick the timer was armed for. The generation
// check discards timers that outlived their tick.
func (r *Reconciler) onTimeout(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active || gen != r.generation {
		return
	}
	r.logger.Printf("[reconcile] tick %s timed out waiting for %d symbol(s)", r.tickTime, len(r.needed))
	r.flushLocked(true)
}

// flushLocked delivers the current tick exactly once and resets. When
// timedOut, still-missing symbols are padded with placeholder candles.
func (r *Reconciler) flushLocked(timedOut bool) {
	if !r.active {
		return
	}

	placeholders := 0
	if timedOut {
		for symbol := range r.needed {
			r.buffer[symbol] = domain.PlaceholderCandle(r.tickTime)
			placeholders++
		}
	}

	batch := Batch{
		Timestamp: r.tickTime,
		Candles:   r.buffer,
		TimedOut:  timedOut,
	}

	r.active = false
	r.lastDelivered = r.tickTime
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.buffer = nil
	r.needed = nil

	r.metrics.RecordBatch(timedOut, placeholders, batch.Timestamp.Unix())
	r.deliver(batch)
}

// Flush forces delivery of any in-flight tick, padding missing symbols.
// Used during shutdown so a partial tick is not silently lost.
func (r *Reconciler) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked(true)
}

// Pending reports whether a tick is currently in flight.
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
