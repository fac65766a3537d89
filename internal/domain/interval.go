package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IntervalUnit is the time unit of a sampling interval.
type IntervalUnit string

// Supported interval units.
const (
	UnitSec IntervalUnit = "SEC"
	UnitMin IntervalUnit = "MIN"
	UnitHr  IntervalUnit = "HR"
	UnitDay IntervalUnit = "DAY"
)

// unitSeconds maps each unit to its length in seconds.
var unitSeconds = map[IntervalUnit]int64{
	UnitSec: 1,
	UnitMin: 60,
	UnitHr:  3600,
	UnitDay: 86400,
}

// UnitSeconds returns the number of seconds in one unit.
// Returns ErrConfiguration for an unknown unit.
func UnitSeconds(unit IntervalUnit) (int64, error) {
	s, ok := unitSeconds[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unknown interval unit %q", ErrConfiguration, unit)
	}
	return s, nil
}

// Interval is an immutable sampling/aggregation period: a unit plus a
// positive integer magnitude. Intervals are totally ordered by their
// duration in seconds.
type Interval struct {
	Unit      IntervalUnit
	Magnitude int
}

// NewInterval creates a validated Interval.
func NewInterval(unit IntervalUnit, magnitude int) (Interval, error) {
	iv := Interval{Unit: unit, Magnitude: magnitude}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// MustInterval is NewInterval that panics on invalid input.
// Intended for constants and tests.
func MustInterval(unit IntervalUnit, magnitude int) Interval {
	iv, err := NewInterval(unit, magnitude)
	if err != nil {
		panic(err)
	}
	return iv
}

// ParseInterval parses the canonical string form "<UNIT>_<magnitude>",
// e.g. "MIN_5" or "SEC_15".
func ParseInterval(s string) (Interval, error) {
	unit, mag, ok := strings.Cut(s, "_")
	if !ok {
		return Interval{}, fmt.Errorf("%w: malformed interval %q", ErrConfiguration, s)
	}
	m, err := strconv.Atoi(mag)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: malformed interval magnitude %q", ErrConfiguration, s)
	}
	return NewInterval(IntervalUnit(unit), m)
}

// Validate checks the unit is known and the magnitude positive.
func (i Interval) Validate() error {
	if _, ok := unitSeconds[i.Unit]; !ok {
		return fmt.Errorf("%w: unknown interval unit %q", ErrConfiguration, i.Unit)
	}
	if i.Magnitude <= 0 {
		return fmt.Errorf("%w: interval magnitude must be positive, got %d", ErrConfiguration, i.Magnitude)
	}
	return nil
}

// Seconds returns the interval length in seconds.
func (i Interval) Seconds() int64 {
	return unitSeconds[i.Unit] * int64(i.Magnitude)
}

// Duration returns the interval length as a time.Duration.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.Seconds()) * time.Second
}

// Less reports whether i is a shorter period than other.
func (i Interval) Less(other Interval) bool {
	return i.Seconds() < other.Seconds()
}

// String returns the canonical form "<UNIT>_<magnitude>".
func (i Interval) String() string {
	return fmt.Sprintf("%s_%d", i.Unit, i.Magnitude)
}
