package strategy

import (
	"errors"
	"log"
	"time"

	"algotrade-core/internal/orchestrator"
	"algotrade-core/internal/paper"
)

// Strategy type names accepted by FromConfig.
const (
	TypeLog      = "LOG"
	TypeMomentum = "MOMENTUM"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrMissingEntryPct     = errors.New("MOMENTUM requires EntryPct")
	ErrMissingTrailPct     = errors.New("MOMENTUM requires TrailPct")
	ErrMissingQuantity     = errors.New("MOMENTUM requires Quantity")
)

// Config selects a strategy and its parameters.
type Config struct {
	Type string

	EntryPct *float64
	TrailPct *float64
	Quantity *float64
	MaxHold  time.Duration
}

// FromConfig creates a Strategy from a Config. Validates required
// parameters per strategy type.
func FromConfig(cfg Config, engine *paper.Engine, logger *log.Logger) (orchestrator.Strategy, error) {
	switch cfg.Type {
	case TypeLog, "":
		return NewLogStrategy(logger), nil
	case TypeMomentum:
		return fromMomentumConfig(cfg, engine, logger)
	default:
		return nil, ErrUnknownStrategyType
	}
}

func fromMomentumConfig(cfg Config, engine *paper.Engine, logger *log.Logger) (*MomentumStrategy, error) {
	if cfg.EntryPct == nil {
		return nil, ErrMissingEntryPct
	}
	if cfg.TrailPct == nil {
		return nil, ErrMissingTrailPct
	}
	if cfg.Quantity == nil {
		return nil, ErrMissingQuantity
	}
	return NewMomentumStrategy(engine, *cfg.EntryPct, *cfg.TrailPct, cfg.MaxHold, *cfg.Quantity, logger), nil
}
