// Package scheduler runs one timer loop per distinct interval in the
// watch configuration and invokes a fetch callback at each aligned
// boundary. Loops are independent; a slow or panicking callback on one
// interval never stalls the others.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"algotrade-core/internal/clock"
	"algotrade-core/internal/domain"
	"algotrade-core/internal/observability"
)

// FetchFunc is invoked once per boundary with the boundary time as the
// tick's UTC "now" marker. Invocations for a single interval are
// strictly sequential; different intervals may overlap.
type FetchFunc func(ctx context.Context, iv domain.Interval, now time.Time)

// MarketHoursFunc answers the trading session for a calendar day. Used
// only for DAY_1 intervals, where the fire boundary is the market close
// rather than a fixed period.
type MarketHoursFunc func(ctx context.Context, date time.Time) (domain.MarketHours, error)

// Retry delay after a failed market-hours lookup.
const hoursRetryDelay = time.Minute

// Scheduler owns the timer loops. Start spawns them, Stop cancels and
// waits; an in-flight callback always runs to completion.
type Scheduler struct {
	watch   domain.WatchList
	fetch   FetchFunc
	hours   MarketHoursFunc
	nowFn   func() time.Time
	logger  *log.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// Options configures a Scheduler.
type Options struct {
	Watch domain.WatchList
	Fetch FetchFunc

	// MarketHours drives DAY_1 boundaries. When nil, DAY_1 falls back
	// to UTC midnight alignment.
	MarketHours MarketHoursFunc

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger *log.Logger

	// Metrics is optional.
	Metrics *observability.Metrics
}

// New creates a Scheduler. Fetch must be set and the watch list valid.
func New(opts Options) (*Scheduler, error) {
	if opts.Fetch == nil {
		return nil, fmt.Errorf("%w: fetch callback required", domain.ErrConfiguration)
	}
	if err := opts.Watch.Validate(); err != nil {
		return nil, err
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		watch:   opts.Watch,
		fetch:   opts.Fetch,
		hours:   opts.MarketHours,
		nowFn:   nowFn,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Start launches one loop per distinct interval. Calling Start twice
// is an error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("%w: scheduler already started", domain.ErrConfiguration)
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	intervals := s.watch.DistinctIntervals()
	for _, iv := range intervals {
		s.wg.Add(1)
		go s.run(ctx, iv)
	}
	s.logger.Printf("[scheduler] started %d timer(s)", len(intervals))
	return nil
}

// Stop cancels all loops and blocks until they exit. An in-flight
// callback finishes before its loop does.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Printf("[scheduler] stopped")
}

// run is one interval's timer loop. Each iteration computes the next
// boundary from the current time, so falling behind skips boundaries
// instead of queueing a backlog.
func (s *Scheduler) run(ctx context.Context, iv domain.Interval) {
	defer s.wg.Done()

	useHours := iv.Unit == domain.UnitDay && iv.Magnitude == 1 && s.hours != nil
	var lastFired time.Time

	for {
		now := s.nowFn()

		var next time.Time
		if useHours {
			boundary, fire, err := s.dayBoundary(ctx, now)
			if err != nil {
				s.logger.Printf("[scheduler] %s market hours lookup: %v", iv, err)
				if !s.sleepUntil(ctx, now.Add(hoursRetryDelay)) {
					return
				}
				continue
			}
			if !fire {
				// Market closed: sleep to the next UTC midnight and
				// re-query the calendar.
				if !s.sleepUntil(ctx, boundary) {
					return
				}
				continue
			}
			next = boundary
		} else {
			aligned, err := clock.NextAlignedTime(now, iv)
			if err != nil {
				s.logger.Printf("[scheduler] %s: %v", iv, err)
				return
			}
			next = aligned
		}

		if !s.sleepUntil(ctx, next) {
			return
		}

		if !next.After(lastFired) {
			s.metrics.RecordSkip(iv.String())
			continue
		}
		lastFired = next

		s.invoke(ctx, iv, next)
	}
}

// dayBoundary resolves the next DAY_1 boundary from market hours.
// fire=false means the market is closed and boundary is the time to
// sleep to before re-querying.
func (s *Scheduler) dayBoundary(ctx context.Context, now time.Time) (boundary time.Time, fire bool, err error) {
	hours, err := s.hours(ctx, now)
	if err != nil {
		return time.Time{}, false, err
	}
	if hours.IsOpen && hours.CloseAt != nil && hours.CloseAt.After(now) {
		return hours.CloseAt.UTC(), true, nil
	}

	midnight, err := clock.NextAlignedTime(now, domain.Interval{Unit: domain.UnitDay, Magnitude: 1})
	if err != nil {
		return time.Time{}, false, err
	}
	return midnight, false, nil
}

// sleepUntil blocks until at or ctx cancellation. Reports false when
// cancelled.
func (s *Scheduler) sleepUntil(ctx context.Context, at time.Time) bool {
	d := at.Sub(s.nowFn())
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// invoke runs the callback for one boundary with panic isolation, so a
// misbehaving callback cannot kill the timer loop.
func (s *Scheduler) invoke(ctx context.Context, iv domain.Interval, boundary time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("[scheduler] %s callback panic at %s: %v", iv, boundary, r)
			s.metrics.RecordCallbackError(iv.String())
		}
	}()

	s.metrics.RecordFire(iv.String())
	start := time.Now()
	s.fetch(ctx, iv, boundary)
	s.metrics.ObserveCallback(iv.String(), time.Since(start).Seconds())
}
