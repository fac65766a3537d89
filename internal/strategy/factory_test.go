package strategy

import (
	"errors"
	"testing"
	"time"

	"algotrade-core/internal/paper"
)

func ptr(v float64) *float64 { return &v }

func TestFromConfigLogDefault(t *testing.T) {
	s, err := FromConfig(Config{}, nil, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*LogStrategy); !ok {
		t.Errorf("default strategy = %T, want *LogStrategy", s)
	}
}

func TestFromConfigMomentum(t *testing.T) {
	engine := paper.NewEngine(paper.Options{InitialCash: 1, Lookup: newPriceTable(), Logger: discard()})
	s, err := FromConfig(Config{
		Type:     TypeMomentum,
		EntryPct: ptr(0.02),
		TrailPct: ptr(0.05),
		Quantity: ptr(10),
		MaxHold:  time.Hour,
	}, engine, discard())
	if err != nil {
		t.Fatal(err)
	}
	m, ok := s.(*MomentumStrategy)
	if !ok {
		t.Fatalf("strategy = %T, want *MomentumStrategy", s)
	}
	if m.EntryPct != 0.02 || m.TrailPct != 0.05 || m.Quantity != 10 {
		t.Errorf("parameters not applied: %+v", m)
	}
}

func TestFromConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown type", Config{Type: "MEAN_REVERSION"}, ErrUnknownStrategyType},
		{"missing entry", Config{Type: TypeMomentum, TrailPct: ptr(0.05), Quantity: ptr(10)}, ErrMissingEntryPct},
		{"missing trail", Config{Type: TypeMomentum, EntryPct: ptr(0.02), Quantity: ptr(10)}, ErrMissingTrailPct},
		{"missing quantity", Config{Type: TypeMomentum, EntryPct: ptr(0.02), TrailPct: ptr(0.05)}, ErrMissingQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromConfig(tc.cfg, nil, discard()); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
