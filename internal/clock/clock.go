// Package clock computes drift-free interval boundaries.
//
// Boundaries are aligned to wall-clock time rather than to when the
// previous cycle happened to run, so repeated scheduling never
// accumulates drift: 5-minute intervals fire at :00, :05, :10, ...,
// hourly intervals at the top of the hour, daily intervals at UTC
// midnight.
package clock

import (
	"time"

	"algotrade-core/internal/domain"
)

// NextAlignedTime returns the next boundary of iv strictly after
// current. Alignment rules:
//
//   - SEC m: next multiple of m seconds within the containing minute;
//     if none remains, the start of the next minute.
//   - MIN 1: next whole-minute boundary. MIN m>1: next multiple of m
//     minutes within the containing hour.
//   - HR 1: next whole-hour boundary. HR m>1: next multiple of m hours
//     within the containing day.
//   - DAY 1: next UTC midnight. DAY m>1: next multiple of m*86400
//     seconds from the Unix epoch.
//
// SEC and MIN magnitudes must evenly divide 60 and HR magnitudes must
// evenly divide 24; a non-divisor magnitude (say MIN 7) has no fixed
// grid within its containing unit, so the boundary after the last full
// step snaps into the next hour or day off that unit's pattern.
func NextAlignedTime(current time.Time, iv domain.Interval) (time.Time, error) {
	if err := iv.Validate(); err != nil {
		return time.Time{}, err
	}

	now := current.Unix()
	m := int64(iv.Magnitude)
	var next int64

	switch iv.Unit {
	case domain.UnitSec:
		minuteStart := now - now%60
		elapsed := now - minuteStart
		next = minuteStart + (elapsed/m+1)*m
		if next >= minuteStart+60 {
			next = minuteStart + 60
		}

	case domain.UnitMin:
		if m == 1 {
			next = (now/60 + 1) * 60
		} else {
			hourStart := now - now%3600
			elapsed := now - hourStart
			step := m * 60
			next = hourStart + (elapsed/step+1)*step
		}

	case domain.UnitHr:
		if m == 1 {
			next = (now/3600 + 1) * 3600
		} else {
			dayStart := now - now%86400
			elapsed := now - dayStart
			step := m * 3600
			next = dayStart + (elapsed/step+1)*step
		}

	case domain.UnitDay:
		step := m * 86400
		next = (now/step + 1) * step
	}

	return time.Unix(next, 0).UTC(), nil
}

// IsBoundary reports whether t falls exactly on a boundary of iv.
// Used to decide which watched symbols a tick timestamp belongs to.
func IsBoundary(t time.Time, iv domain.Interval) bool {
	if iv.Validate() != nil {
		return false
	}
	now := t.Unix()
	if t.Nanosecond() != 0 {
		return false
	}
	m := int64(iv.Magnitude)

	switch iv.Unit {
	case domain.UnitSec:
		return (now%60)%m == 0
	case domain.UnitMin:
		if now%60 != 0 {
			return false
		}
		if m == 1 {
			return true
		}
		return ((now%3600)/60)%m == 0
	case domain.UnitHr:
		if now%3600 != 0 {
			return false
		}
		if m == 1 {
			return true
		}
		return ((now%86400)/3600)%m == 0
	case domain.UnitDay:
		return now%(m*86400) == 0
	}
	return false
}
