package model

import (
	"sync"
	"time"
)

// Clock is one player's countdown. Only the side to move has a running clock.
type Clock struct {
	mu        sync.Mutex
	remaining time.Duration
	since     time.Time // set while running
	running   bool
	now       func() time.Time
}

func NewClock(limit time.Duration) *Clock {
	return &Clock{remaining: limit, now: time.Now}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		c.since = c.now()
		c.running = true
	}
}

// Stop banks the elapsed time.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.remaining = c.left()
		c.running = false
	}
}

// Set stops the clock and replaces the remaining time, as on load.
func (c *Clock) Set(remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remaining = remaining
	c.running = false
}

// GetTimeLeft never goes below zero.
func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left()
}

func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Clock) Flagged() bool {
	return c.GetTimeLeft() == 0
}

func (c *Clock) left() time.Duration {
	d := c.remaining
	if c.running {
		d -= c.now().Sub(c.since)
	}
	if d < 0 {
		return 0
	}
	return d
}
