// Package orchestrator wires the scheduler, data source, paper engine
// and stores into one running trading session.
// Flow: scheduler fires → fetch per-symbol candles → batch to strategy
// → evaluate open orders → periodic checkpoint.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"algotrade-core/internal/candles"
	"algotrade-core/internal/clock"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/reconcile"
	"algotrade-core/internal/scheduler"
	"algotrade-core/internal/source"
	"algotrade-core/internal/storage"
)

// Strategy consumes consolidated batches and fill events. Strategy
// callbacks for a single interval run sequentially.
type Strategy interface {
	OnBatch(ctx context.Context, batch reconcile.Batch)
	OnFill(ev domain.FillEvent)
}

// Default checkpoint cadence.
const DefaultCheckpointEvery = time.Minute

// Trader runs one trading session end to end.
type Trader struct {
	watch    domain.WatchList
	src      source.DataSource
	engine   *paper.Engine
	strategy Strategy
	retry    source.RetryPolicy

	checkpoints storage.CheckpointStore
	candleStore storage.CandleStore
	fills       storage.FillStore

	session         string
	checkpointEvery time.Duration

	logger  *log.Logger
	metrics *observability.Metrics

	sched  *scheduler.Scheduler
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options configures a Trader.
type Options struct {
	Watch    domain.WatchList
	Source   source.DataSource
	Engine   *paper.Engine
	Strategy Strategy

	// Retry governs transient fetch failures. Zero value uses the
	// default policy.
	Retry source.RetryPolicy

	// Checkpoints enables periodic persistence of the paper account.
	// Optional; nil disables checkpointing.
	Checkpoints storage.CheckpointStore

	// CandleStore persists fetched candles and their aggregations.
	// Optional.
	CandleStore storage.CandleStore

	// Fills records fill events for audit. Optional.
	Fills storage.FillStore

	// Session names the checkpoint record. Defaults to "default".
	Session string

	// CheckpointEvery sets the checkpoint cadence. Defaults to
	// DefaultCheckpointEvery.
	CheckpointEvery time.Duration

	Logger  *log.Logger
	Metrics *observability.Metrics
}

// New creates a Trader. Watch, Source, Engine and Strategy are
// required.
func New(opts Options) (*Trader, error) {
	if opts.Source == nil || opts.Engine == nil || opts.Strategy == nil {
		return nil, fmt.Errorf("%w: source, engine and strategy are required", domain.ErrConfiguration)
	}
	if err := opts.Watch.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Watch) == 0 {
		return nil, fmt.Errorf("%w: empty watch list", domain.ErrConfiguration)
	}
	session := opts.Session
	if session == "" {
		session = "default"
	}
	every := opts.CheckpointEvery
	if every <= 0 {
		every = DefaultCheckpointEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	t := &Trader{
		watch:           opts.Watch,
		src:             opts.Source,
		engine:          opts.Engine,
		strategy:        opts.Strategy,
		retry:           opts.Retry,
		checkpoints:     opts.Checkpoints,
		candleStore:     opts.CandleStore,
		fills:           opts.Fills,
		session:         session,
		checkpointEvery: every,
		logger:          logger,
		metrics:         opts.Metrics,
	}

	sched, err := scheduler.New(scheduler.Options{
		Watch:       opts.Watch,
		Fetch:       t.fetchCycle,
		MarketHours: opts.Source.MarketHours,
		Logger:      logger,
		Metrics:     opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	t.sched = sched
	return t, nil
}

// Start restores the last checkpoint, then launches the scheduler and
// the checkpoint loop.
func (t *Trader) Start(ctx context.Context) error {
	if err := t.restore(ctx); err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)

	if t.checkpoints != nil {
		t.wg.Add(1)
		go t.checkpointLoop(ctx)
	}

	return t.sched.Start(ctx)
}

// Stop shuts the session down and writes a final checkpoint.
func (t *Trader) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.sched.Stop()
	t.wg.Wait()

	if t.checkpoints != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		t.saveCheckpoint(ctx)
	}
}

// restore loads the session checkpoint if one exists.
func (t *Trader) restore(ctx context.Context) error {
	if t.checkpoints == nil {
		return nil
	}
	cp, err := t.checkpoints.Load(ctx, t.session)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			t.logger.Printf("[trader] no checkpoint for session %q, starting fresh", t.session)
			return nil
		}
		return fmt.Errorf("restore session %q: %w", t.session, err)
	}
	t.engine.Restore(cp)
	t.logger.Printf("[trader] restored session %q: cash %.2f, %d order(s)",
		t.session, cp.Account.Cash, len(cp.Orders.Orders))
	return nil
}

// fetchCycle is the scheduler callback: fetch one candle per symbol
// due at this boundary, deliver the batch, then evaluate open orders.
// A failed symbol is skipped; the rest of the cycle proceeds.
func (t *Trader) fetchCycle(ctx context.Context, iv domain.Interval, now time.Time) {
	symbols := t.watch.SymbolsFor(iv)
	batch := reconcile.Batch{Timestamp: now, Candles: make(map[string]domain.Candle, len(symbols))}

	for _, symbol := range symbols {
		c, err := t.fetchCandle(ctx, symbol, iv, now)
		if err != nil {
			t.logger.Printf("[trader] fetch %s %s at %s: %v", symbol, iv, now, err)
			t.metrics.RecordFetchError("history")
			continue
		}
		batch.Candles[symbol] = c
		t.metrics.RecordCandlesServed(1)
		t.persistCandle(ctx, symbol, iv, now, c)
	}

	if len(batch.Candles) == 0 {
		t.logger.Printf("[trader] %s cycle at %s produced no data", iv, now)
		return
	}

	t.HandleBatch(ctx, batch)
}

// fetchCandle retrieves the candle for the interval window ending at
// now, retrying transient failures.
func (t *Trader) fetchCandle(ctx context.Context, symbol string, iv domain.Interval, now time.Time) (domain.Candle, error) {
	var series candles.Series
	started := time.Now()
	err := t.retry.Do(ctx, func() error {
		var fetchErr error
		series, fetchErr = t.src.PriceHistory(ctx, symbol, iv, now.Add(-iv.Duration()), now)
		return fetchErr
	})
	t.metrics.ObserveFetch("history", time.Since(started).Seconds())
	if err != nil {
		return domain.Candle{}, err
	}
	last, ok := series.Last()
	if !ok {
		return domain.Candle{}, fmt.Errorf("no data for %s", symbol)
	}
	return last, nil
}

// persistCandle stores the fetched candle and, on aggregation interval
// boundaries, the aggregated candle derived from the symbol's base
// interval.
func (t *Trader) persistCandle(ctx context.Context, symbol string, iv domain.Interval, now time.Time, c domain.Candle) {
	if t.candleStore == nil {
		return
	}
	if err := t.candleStore.InsertBulk(ctx, symbol, iv, []domain.Candle{c}); err != nil {
		t.logger.Printf("[trader] store candle %s %s: %v", symbol, iv, err)
	}

	entry := t.watch[symbol]
	for _, agg := range entry.Aggregations {
		if !clock.IsBoundary(now, agg) {
			continue
		}
		base, err := t.src.PriceHistory(ctx, symbol, entry.Interval, now.Add(-agg.Duration()), now)
		if err != nil {
			t.logger.Printf("[trader] aggregate fetch %s %s: %v", symbol, agg, err)
			continue
		}
		rolled, err := candles.Aggregate(base, agg)
		if err != nil || len(rolled) == 0 {
			continue
		}
		if err := t.candleStore.InsertBulk(ctx, symbol, agg, rolled); err != nil {
			t.logger.Printf("[trader] store aggregate %s %s: %v", symbol, agg, err)
		}
	}
}

// HandleBatch hands one consolidated batch to the strategy and then
// re-evaluates open orders at the new prices. It also serves as the
// delivery callback for a stream reconciler.
func (t *Trader) HandleBatch(ctx context.Context, batch reconcile.Batch) {
	t.strategy.OnBatch(ctx, batch)
	t.engine.EvaluateOpen(ctx)
}

// HandleFill forwards a fill to the audit store and the strategy. Wire
// it as the engine's OnFill callback.
func (t *Trader) HandleFill(ev domain.FillEvent) {
	if t.fills != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := t.fills.Insert(ctx, ev); err != nil {
			t.logger.Printf("[trader] record fill %s: %v", ev.ID, err)
		}
		cancel()
	}
	t.strategy.OnFill(ev)
}

// checkpointLoop persists the account state on a fixed cadence.
func (t *Trader) checkpointLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.checkpointEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.saveCheckpoint(ctx)
		}
	}
}

func (t *Trader) saveCheckpoint(ctx context.Context) {
	cp := t.engine.Checkpoint()
	if err := t.checkpoints.Save(ctx, t.session, cp); err != nil {
		t.logger.Printf("[trader] save checkpoint: %v", err)
		return
	}
	if t.metrics != nil {
		t.metrics.LastCheckpointSave.Set(float64(time.Now().Unix()))
	}
}
