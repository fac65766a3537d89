// Package backtest replays deterministic synthetic candles through a
// strategy and a paper engine over a historical range. The same range
// and parameters always produce the same result.
package backtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"algotrade-core/internal/clock"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/orchestrator"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/pricegen"
	"algotrade-core/internal/reconcile"
)

// Results holds backtest output.
type Results struct {
	From, To time.Time

	Batches int
	Fills   []domain.FillEvent

	InitialCash float64
	FinalEquity float64
	Return      float64 // (FinalEquity - InitialCash) / InitialCash
}

// StrategyFactory builds the strategy under test against the backtest
// engine. Called once per run.
type StrategyFactory func(engine *paper.Engine) (orchestrator.Strategy, error)

// Options configures a Runner.
type Options struct {
	Generator *pricegen.Generator

	InitialCash float64
	Commission  paper.Commission

	Logger *log.Logger
}

// Runner executes backtests against generated price data.
type Runner struct {
	gen         *pricegen.Generator
	initialCash float64
	commission  paper.Commission
	logger      *log.Logger
}

// NewRunner creates a Runner. A nil Generator gets a fresh one with
// default settings.
func NewRunner(opts Options) *Runner {
	gen := opts.Generator
	if gen == nil {
		gen = pricegen.New(pricegen.Options{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	cash := opts.InitialCash
	if cash <= 0 {
		cash = 100_000
	}
	return &Runner{gen: gen, initialCash: cash, commission: opts.Commission, logger: logger}
}

// replayClock pins the engine's price lookups and timestamps to the
// simulated step, not wall time.
type replayClock struct {
	gen *pricegen.Generator

	mu  sync.Mutex
	now time.Time
}

func (c *replayClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *replayClock) at() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *replayClock) LatestPrice(_ context.Context, symbol string) (domain.Candle, error) {
	return c.gen.LatestAt(symbol, c.at())
}

// Run replays the watch list's candles from from to to through the
// strategy, evaluating open orders after every batch. Symbols are
// stepped on their own interval boundaries, same as a live session.
func (r *Runner) Run(ctx context.Context, watch domain.WatchList, from, to time.Time, factory StrategyFactory) (*Results, error) {
	if err := watch.Validate(); err != nil {
		return nil, err
	}
	if len(watch) == 0 {
		return nil, fmt.Errorf("%w: empty watch list", domain.ErrConfiguration)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", domain.ErrConfiguration)
	}

	results := &Results{From: from.UTC(), To: to.UTC(), InitialCash: r.initialCash}
	rc := &replayClock{gen: r.gen, now: from.UTC()}

	engine := paper.NewEngine(paper.Options{
		InitialCash: r.initialCash,
		Commission:  r.commission,
		Lookup:      rc,
		OnFill:      func(ev domain.FillEvent) { results.Fills = append(results.Fills, ev) },
		Now:         rc.at,
		Logger:      r.logger,
	})

	strat, err := factory(engine)
	if err != nil {
		return nil, err
	}

	step, err := r.firstStep(from, watch)
	if err != nil {
		return nil, err
	}
	stride := r.stride(watch)

	for ; !step.After(to); step = step.Add(stride) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		batch, err := r.batchAt(watch, step)
		if err != nil {
			return nil, err
		}
		if len(batch.Candles) == 0 {
			continue
		}

		rc.set(step)
		strat.OnBatch(ctx, batch)
		engine.EvaluateOpen(ctx)
		results.Batches++
	}

	results.FinalEquity = engine.RecomputeEquity()
	results.Return = (results.FinalEquity - results.InitialCash) / results.InitialCash
	return results, nil
}

// stride is the smallest interval in the watch list; stepping by it
// visits every boundary of every watched interval.
func (r *Runner) stride(watch domain.WatchList) time.Duration {
	var min time.Duration
	for _, iv := range watch.DistinctIntervals() {
		if d := iv.Duration(); min == 0 || d < min {
			min = d
		}
	}
	return min
}

func (r *Runner) firstStep(from time.Time, watch domain.WatchList) (time.Time, error) {
	var first time.Time
	for _, iv := range watch.DistinctIntervals() {
		next, err := clock.NextAlignedTime(from, iv)
		if err != nil {
			return time.Time{}, err
		}
		if first.IsZero() || next.Before(first) {
			first = next
		}
	}
	return first, nil
}

// batchAt assembles the consolidated batch for one boundary: every
// symbol whose interval is due at step contributes its latest candle.
func (r *Runner) batchAt(watch domain.WatchList, step time.Time) (reconcile.Batch, error) {
	batch := reconcile.Batch{Timestamp: step, Candles: make(map[string]domain.Candle)}
	for symbol, entry := range watch {
		if !clock.IsBoundary(step, entry.Interval) {
			continue
		}
		series, err := r.gen.History(symbol, entry.Interval, step.Add(-entry.Interval.Duration()), step)
		if err != nil {
			return reconcile.Batch{}, fmt.Errorf("history %s at %s: %w", symbol, step, err)
		}
		if last, ok := series.Last(); ok {
			batch.Candles[symbol] = last
		}
	}
	return batch, nil
}
