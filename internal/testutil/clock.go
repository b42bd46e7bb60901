// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a FakeClock starts at when given the zero time.
var Epoch = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// FakeClock hands out deterministic timestamps. Its Now method satisfies the
// func() time.Time hooks taken by the ledger.
type FakeClock struct {
	mu   sync.Mutex
	at   time.Time
	tick time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = Epoch
	}
	return &FakeClock{at: start}
}

// Now reports the clock's time and then moves it on by the AutoAdvance step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.at
	c.at = t.Add(c.tick)
	return t
}

// Peek is Now without the step.
func (c *FakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.at = c.at.Add(d)
	c.mu.Unlock()
}

// AutoAdvance sets the step applied after every Now call. Zero disables it.
func (c *FakeClock) AutoAdvance(step time.Duration) {
	c.mu.Lock()
	c.tick = step
	c.mu.Unlock()
}
