package testutil

import (
	"sync"
	"time"

	"github.com/Spok95/gym-console/internal/clock"
)

// Clock is a settable clock.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var kolkata = time.FixedZone("IST", 5*3600+1800)

// Kolkata returns a calendar in Asia/Kolkata driven by c. A fixed +05:30
// zone stands in for the tz database so tests run without zoneinfo.
func Kolkata(c clock.Clock) clock.Calendar {
	return clock.Calendar{Clock: c, Location: kolkata}
}

// At is 10:00 Kolkata time on the given date.
func At(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, kolkata)
}
