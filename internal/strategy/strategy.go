// Package strategy provides ready-made trading strategies that plug
// into an orchestrator session. Strategies react to consolidated
// candle batches and place orders on the paper engine.
package strategy

import (
	"context"
	"log"

	"algotrade-core/internal/domain"
	"algotrade-core/internal/reconcile"
)

// LogStrategy trades nothing and logs everything it sees. Useful as a
// session default and for dry runs.
type LogStrategy struct {
	logger *log.Logger
}

// NewLogStrategy creates a LogStrategy.
func NewLogStrategy(logger *log.Logger) *LogStrategy {
	if logger == nil {
		logger = log.Default()
	}
	return &LogStrategy{logger: logger}
}

func (s *LogStrategy) OnBatch(_ context.Context, b reconcile.Batch) {
	s.logger.Printf("[strategy] batch at %s: %d symbol(s), timed_out=%t",
		b.Timestamp.Format("2006-01-02T15:04:05Z"), len(b.Candles), b.TimedOut)
}

func (s *LogStrategy) OnFill(ev domain.FillEvent) {
	s.logger.Printf("[strategy] fill %s: %s %g %s at %.2f",
		ev.ID, ev.Side, ev.Quantity, ev.Symbol, ev.FilledPrice)
}
