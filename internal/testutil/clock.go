package testutil

import (
	"sync"
	"time"
)

// Clock is a manual clock that moves forward by Step on every reading.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewClock starts a clock at start that ticks one second per reading.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start, Step: time.Second}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
