// Package clock holds the UTC calendar helpers behind daily limits.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Services take one so tests can move time.
type Clock func() time.Time

// System is the wall clock.
func System() time.Time { return time.Now() }

// DateKey returns the UTC calendar date (YYYY-MM-DD) of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// UntilNextDay is the time left before the next UTC midnight.
func UntilNextDay(t time.Time) time.Duration {
	u := t.UTC()
	next := time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(u)
}

// Manual is a settable clock for tests.
type Manual struct {
	mu sync.Mutex
	t  time.Time
}

// NewManual starts a manual clock at t.
func NewManual(t time.Time) *Manual { return &Manual{t: t} }

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// Advance moves the clock forward.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
}
