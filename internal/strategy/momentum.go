package strategy

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/paper"
	"algotrade-core/internal/reconcile"
)

// MomentumStrategy buys a symbol when its close rises by EntryPct over
// the previous batch, then exits on a trailing stop from the peak or
// after MaxHold, whichever comes first. One open position per symbol.
type MomentumStrategy struct {
	engine *paper.Engine
	logger *log.Logger

	EntryPct float64       // entry trigger, e.g. 0.02 = 2% rise
	TrailPct float64       // trailing stop distance from peak
	MaxHold  time.Duration // maximum hold time
	Quantity float64       // shares per entry

	mu    sync.Mutex
	state map[string]*symbolState
}

type symbolState struct {
	prevClose float64
	holding   bool
	peak      float64
	enteredAt time.Time
}

// NewMomentumStrategy creates a MomentumStrategy trading on the given
// engine.
func NewMomentumStrategy(engine *paper.Engine, entryPct, trailPct float64, maxHold time.Duration, quantity float64, logger *log.Logger) *MomentumStrategy {
	if logger == nil {
		logger = log.Default()
	}
	return &MomentumStrategy{
		engine:   engine,
		logger:   logger,
		EntryPct: entryPct,
		TrailPct: trailPct,
		MaxHold:  maxHold,
		Quantity: quantity,
		state:    make(map[string]*symbolState),
	}
}

// ID returns the strategy identifier including parameters.
func (s *MomentumStrategy) ID() string {
	return fmt.Sprintf("MOMENTUM_entry%.1f_trail%.1f_%s", s.EntryPct*100, s.TrailPct*100, s.MaxHold)
}

func (s *MomentumStrategy) OnBatch(_ context.Context, b reconcile.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for symbol, c := range b.Candles {
		if c.IsPlaceholder() {
			continue
		}
		st, ok := s.state[symbol]
		if !ok {
			st = &symbolState{}
			s.state[symbol] = st
		}
		s.step(symbol, st, c.Close, b.Timestamp)
		st.prevClose = c.Close
	}
}

// step runs the entry and exit rules for one symbol at one price.
func (s *MomentumStrategy) step(symbol string, st *symbolState, price float64, now time.Time) {
	if st.holding {
		if price > st.peak {
			st.peak = price
		}
		trailingStop := st.peak * (1 - s.TrailPct)
		expired := s.MaxHold > 0 && now.Sub(st.enteredAt) >= s.MaxHold
		if price > trailingStop && !expired {
			return
		}
		if _, err := s.engine.Place(domain.SideSell, symbol, s.Quantity, price, domain.GTC); err != nil {
			s.logger.Printf("[strategy] exit %s: %v", symbol, err)
			return
		}
		st.holding = false
		return
	}

	if st.prevClose <= 0 || price < st.prevClose*(1+s.EntryPct) {
		return
	}
	// Limit slightly above the close so the order is marketable on
	// the next evaluation.
	if _, err := s.engine.Place(domain.SideBuy, symbol, s.Quantity, price*1.01, domain.GTC); err != nil {
		s.logger.Printf("[strategy] entry %s: %v", symbol, err)
		return
	}
	st.holding = true
	st.peak = price
	st.enteredAt = now
}

func (s *MomentumStrategy) OnFill(ev domain.FillEvent) {
	s.logger.Printf("[strategy] fill %s: %s %g %s at %.2f",
		ev.ID, ev.Side, ev.Quantity, ev.Symbol, ev.FilledPrice)
}
