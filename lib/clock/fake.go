// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called, except that each Now call advances
// the clock by Step (zero by default). A non-zero Step makes
// busy-retry loops that poll Now terminate deterministically without
// real waiting.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing. Sleep returns
// immediately after advancing the clock; After fires based on the fake
// time at call point, delivered on a pre-filled channel once the clock
// passes the deadline.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time

	// Step is added to the current time on every Now call. Set before
	// handing the clock to the code under test.
	Step time.Duration

	waiters []fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// Now returns the current fake time, then advances it by Step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	if c.Step > 0 {
		c.advanceLocked(c.Step)
	}
	return now
}

// After returns a channel that receives once the fake clock advances
// past the deadline. If d <= 0, the channel receives immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.waiters = append(c.waiters, fakeWaiter{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	return channel
}

// Sleep advances the clock by d and returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// Advance moves the fake time forward by d, firing any waiters whose
// deadline is reached.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceLocked(d)
}

func (c *FakeClock) advanceLocked(d time.Duration) {
	c.current = c.current.Add(d)

	remaining := c.waiters[:0]
	for _, waiter := range c.waiters {
		if !waiter.deadline.After(c.current) {
			waiter.channel <- c.current
			continue
		}
		remaining = append(remaining, waiter)
	}
	c.waiters = remaining
}
