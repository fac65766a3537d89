package clock

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"algotrade-core/internal/domain"
)

func TestNextAlignedTimeBoundaries(t *testing.T) {
	// 2024-01-01 12:34:56 UTC
	now := time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)

	cases := []struct {
		interval domain.Interval
		want     time.Time
	}{
		{domain.MustInterval(domain.UnitSec, 15), time.Date(2024, 1, 1, 12, 35, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitSec, 10), time.Date(2024, 1, 1, 12, 35, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitMin, 1), time.Date(2024, 1, 1, 12, 35, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitMin, 5), time.Date(2024, 1, 1, 12, 35, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitMin, 15), time.Date(2024, 1, 1, 12, 45, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitMin, 30), time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitHr, 1), time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitHr, 6), time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)},
		{domain.MustInterval(domain.UnitDay, 1), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := NextAlignedTime(now, tc.interval)
		if err != nil {
			t.Fatalf("NextAlignedTime(%s) failed: %v", tc.interval, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("NextAlignedTime(%s) = %s, want %s", tc.interval, got, tc.want)
		}
		if !got.After(now) {
			t.Errorf("NextAlignedTime(%s) = %s is not after %s", tc.interval, got, now)
		}
	}
}

func TestNextAlignedTimeStrictlyAfterOnBoundary(t *testing.T) {
	// Feeding in a time already on a boundary must return the next one.
	onBoundary := time.Date(2024, 1, 1, 12, 35, 0, 0, time.UTC)

	iv := domain.MustInterval(domain.UnitMin, 5)
	got, err := NextAlignedTime(onBoundary, iv)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 1, 1, 12, 40, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextAlignedTime on boundary = %s, want %s", got, want)
	}
}

func TestNextAlignedTimeNoDrift(t *testing.T) {
	// Feeding each boundary back in (with bounded jitter) must produce
	// successive boundaries exactly one interval apart.
	intervals := []domain.Interval{
		domain.MustInterval(domain.UnitSec, 15),
		domain.MustInterval(domain.UnitSec, 30),
		domain.MustInterval(domain.UnitMin, 1),
		domain.MustInterval(domain.UnitMin, 5),
		domain.MustInterval(domain.UnitMin, 30),
		domain.MustInterval(domain.UnitHr, 1),
		domain.MustInterval(domain.UnitHr, 6),
		domain.MustInterval(domain.UnitDay, 1),
		domain.MustInterval(domain.UnitDay, 3),
	}

	rng := rand.New(rand.NewSource(42))
	start := time.Date(2024, 3, 7, 9, 13, 27, 0, time.UTC)

	for _, iv := range intervals {
		prev, err := NextAlignedTime(start, iv)
		if err != nil {
			t.Fatalf("NextAlignedTime(%s) failed: %v", iv, err)
		}
		for i := 0; i < 5; i++ {
			// Jitter bounded well below one interval, as a late-waking
			// timer would produce.
			jitter := time.Duration(rng.Int63n(iv.Seconds()*int64(time.Second)/4 + 1))
			next, err := NextAlignedTime(prev.Add(jitter), iv)
			if err != nil {
				t.Fatal(err)
			}
			if gap := next.Sub(prev); gap != iv.Duration() {
				t.Fatalf("%s: boundary gap %s, want %s (prev=%s next=%s)", iv, gap, iv.Duration(), prev, next)
			}
			prev = next
		}
	}
}

func TestDivisorMagnitudesStayOnGrid(t *testing.T) {
	// Supported magnitudes divide their containing unit, so every
	// computed boundary lands back on the interval's grid even when the
	// input sits in the last partial step before the unit rolls over.
	nearRollover := time.Date(2024, 1, 1, 23, 58, 59, 0, time.UTC)

	for _, m := range []int{1, 2, 3, 4, 5, 6, 10, 12, 15, 20, 30} {
		for _, unit := range []domain.IntervalUnit{domain.UnitSec, domain.UnitMin} {
			iv := domain.MustInterval(unit, m)
			next, err := NextAlignedTime(nearRollover, iv)
			if err != nil {
				t.Fatalf("NextAlignedTime(%s) failed: %v", iv, err)
			}
			if !IsBoundary(next, iv) {
				t.Errorf("NextAlignedTime(%s) = %s is off the %s grid", iv, next, iv)
			}
		}
	}

	for _, m := range []int{1, 2, 3, 4, 6, 8, 12} {
		iv := domain.MustInterval(domain.UnitHr, m)
		next, err := NextAlignedTime(nearRollover, iv)
		if err != nil {
			t.Fatalf("NextAlignedTime(%s) failed: %v", iv, err)
		}
		if !IsBoundary(next, iv) {
			t.Errorf("NextAlignedTime(%s) = %s is off the %s grid", iv, next, iv)
		}
	}
}

func TestNextAlignedTimeInvalidInterval(t *testing.T) {
	now := time.Now()
	for _, iv := range []domain.Interval{
		{Unit: domain.UnitMin, Magnitude: 0},
		{Unit: "WEEK", Magnitude: 1},
	} {
		if _, err := NextAlignedTime(now, iv); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("NextAlignedTime(%v): expected ErrConfiguration, got %v", iv, err)
		}
	}
}

func TestIsBoundary(t *testing.T) {
	min5 := domain.MustInterval(domain.UnitMin, 5)
	hr1 := domain.MustInterval(domain.UnitHr, 1)

	at := time.Date(2024, 1, 1, 12, 35, 0, 0, time.UTC)
	if !IsBoundary(at, min5) {
		t.Errorf("%s should be a MIN_5 boundary", at)
	}
	if IsBoundary(at, hr1) {
		t.Errorf("%s should not be an HR_1 boundary", at)
	}
	if IsBoundary(at.Add(30*time.Second), min5) {
		t.Error("mid-minute time reported as MIN_5 boundary")
	}
	if !IsBoundary(time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), hr1) {
		t.Error("top of hour not reported as HR_1 boundary")
	}
}
