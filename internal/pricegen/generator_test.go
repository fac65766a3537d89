package pricegen

import (
	"errors"
	"testing"
	"time"

	"algotrade-core/internal/domain"
)

var (
	min1 = domain.MustInterval(domain.UnitMin, 1)
	min5 = domain.MustInterval(domain.UnitMin, 5)
)

func TestHistoryReproducibleAcrossInstances(t *testing.T) {
	start := DefaultEpoch
	end := DefaultEpoch.Add(4 * time.Hour)

	a, err := New(Options{}).History("AAPL", min1, start, end)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Options{}).History("AAPL", min1, start, end)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("series lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("candle %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestHistoryDistinctSymbolsDiffer(t *testing.T) {
	g := New(Options{})
	end := DefaultEpoch.Add(time.Hour)

	a, err := g.History("AAPL", min1, DefaultEpoch, end)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.History("MSFT", min1, DefaultEpoch, end)
	if err != nil {
		t.Fatal(err)
	}

	same := true
	for i := range a {
		if a[i].Close != b[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Error("different symbols produced identical series")
	}
}

func TestHistoryIncrementalExtensionMatchesDirect(t *testing.T) {
	t0 := DefaultEpoch
	t1 := DefaultEpoch.Add(2 * time.Hour)
	t2 := DefaultEpoch.Add(6 * time.Hour)

	// Generator A: short range first, then the longer range.
	a := New(Options{})
	if _, err := a.History("TSLA", min1, t0, t1); err != nil {
		t.Fatal(err)
	}
	extended, err := a.History("TSLA", min1, t0, t2)
	if err != nil {
		t.Fatal(err)
	}

	// Generator B: the longer range in one shot.
	direct, err := New(Options{}).History("TSLA", min1, t0, t2)
	if err != nil {
		t.Fatal(err)
	}

	if len(extended) != len(direct) {
		t.Fatalf("lengths differ: %d vs %d", len(extended), len(direct))
	}
	for i := range direct {
		if extended[i] != direct[i] {
			t.Fatalf("candle %d differs after incremental extension", i)
		}
	}

	// And the previously covered subrange is a prefix of the long one.
	sub, err := a.History("TSLA", min1, t0, t1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range sub {
		if sub[i] != direct[i] {
			t.Fatalf("subrange candle %d is not a prefix of the direct series", i)
		}
	}
}

func TestHistoryBoundaryRounding(t *testing.T) {
	g := New(Options{})

	// start rounds up, end rounds down.
	start := DefaultEpoch.Add(2*time.Minute + 10*time.Second)
	end := DefaultEpoch.Add(17*time.Minute + 30*time.Second)

	s, err := g.History("AAPL", min5, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) == 0 {
		t.Fatal("expected non-empty series")
	}
	if got := s[0].Timestamp; !got.Equal(DefaultEpoch.Add(5 * time.Minute)) {
		t.Errorf("first window at %s, want %s", got, DefaultEpoch.Add(5*time.Minute))
	}

	// Rounded start after rounded end: empty.
	s, err = g.History("AAPL", min5, DefaultEpoch.Add(6*time.Minute), DefaultEpoch.Add(9*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 0 {
		t.Errorf("inverted rounded range returned %d candles", len(s))
	}
}

func TestHistoryCandlesAreValid(t *testing.T) {
	g := New(Options{})
	s, err := g.History("@BTC", min5, DefaultEpoch, DefaultEpoch.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range s {
		if err := c.Validate(); err != nil {
			t.Fatalf("generated candle invalid: %v", err)
		}
	}
}

func TestHistoryPointCeiling(t *testing.T) {
	g := New(Options{MaxPoints: 100})
	_, err := g.History("AAPL", min1, DefaultEpoch, DefaultEpoch.Add(200*time.Minute))
	if !errors.Is(err, ErrTooManyPoints) {
		t.Errorf("expected ErrTooManyPoints, got %v", err)
	}
}

func TestHistoryRejectsSubMinuteInterval(t *testing.T) {
	g := New(Options{})
	_, err := g.History("AAPL", domain.MustInterval(domain.UnitSec, 15), DefaultEpoch, DefaultEpoch.Add(time.Hour))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestLatestAtMatchesHistory(t *testing.T) {
	g := New(Options{})
	at := DefaultEpoch.Add(90 * time.Minute)

	latest, err := g.LatestAt("AAPL", at.Add(25*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	s, err := g.History("AAPL", min1, DefaultEpoch, at)
	if err != nil {
		t.Fatal(err)
	}
	last, ok := s.Last()
	if !ok {
		t.Fatal("empty history")
	}
	if latest != last {
		t.Errorf("LatestAt = %+v, want history tail %+v", latest, last)
	}
}

func TestTrimBoundsMemoryAndKeepsExtension(t *testing.T) {
	g := New(Options{})
	if _, err := g.History("AAPL", min1, DefaultEpoch, DefaultEpoch.Add(4*time.Hour)); err != nil {
		t.Fatal(err)
	}

	before := g.StoredPoints("AAPL")
	g.Trim("AAPL", 30)
	if got := g.StoredPoints("AAPL"); got != 30 {
		t.Fatalf("StoredPoints after trim = %d, want 30 (before %d)", got, before)
	}

	// Extension past the retained horizon continues the RNG stream, so
	// the new suffix matches an untrimmed generator.
	extended, err := g.History("AAPL", min1, DefaultEpoch.Add(4*time.Hour), DefaultEpoch.Add(5*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	direct, err := New(Options{}).History("AAPL", min1, DefaultEpoch.Add(4*time.Hour), DefaultEpoch.Add(5*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(extended) != len(direct) {
		t.Fatalf("lengths differ: %d vs %d", len(extended), len(direct))
	}
	for i := range direct {
		if extended[i] != direct[i] {
			t.Fatalf("candle %d differs after trim + extension", i)
		}
	}
}
