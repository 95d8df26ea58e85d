package registry

import "time"

// year is the fixed-length year used for staleness arithmetic. Calendar
// years vary; classification must not.
const year = 365 * 24 * time.Hour

// Thresholds configures the staleness boundaries. Ages below Aging are
// active, ages in [Aging, Unmaintained) are aging, and ages at or beyond
// Unmaintained are unmaintained.
type Thresholds struct {
	Aging        time.Duration
	Unmaintained time.Duration
}

// DefaultThresholds returns the canonical 2-year and 5-year boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Aging:        2 * year,
		Unmaintained: 5 * year,
	}
}

// Classify returns the staleness category for a record last updated at
// lastUpdated, as seen from now. Deterministic given now; callers inject
// the clock.
func (t Thresholds) Classify(lastUpdated, now time.Time) Category {
	age := now.Sub(lastUpdated)
	switch {
	case age < t.Aging:
		return CategoryActive
	case age < t.Unmaintained:
		return CategoryAging
	default:
		return CategoryUnmaintained
	}
}
