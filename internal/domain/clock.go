package domain

import "time"

// Clock supplies "today" to everything that needs a reference date, so the
// status engine and payment validation can be tested with fixed dates.
type Clock interface {
	Today() time.Time
}

// SystemClock reads the wall clock, truncated to day granularity.
type SystemClock struct{}

func (SystemClock) Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// FixedClock always returns the same date. Used in tests and backdated
// recomputations.
type FixedClock struct {
	Date time.Time
}

func (c FixedClock) Today() time.Time {
	return time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(), 0, 0, 0, 0, time.UTC)
}
