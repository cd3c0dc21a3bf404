package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateKeyUsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2026-03-02 08:30 JST is still 2026-03-01 in UTC.
	assert.Equal(t, "2026-03-01", DateKey(time.Date(2026, 3, 2, 8, 30, 0, 0, tokyo)))
}

func TestUntilNextDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, UntilNextDay(now))
}

func TestManualClock(t *testing.T) {
	m := NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m.Advance(25 * time.Hour)
	assert.Equal(t, "2026-01-02", DateKey(m.Now()))
}
