// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"sync"
	"time"
)

// Clock provides the current time of the root ledger.
type Clock interface {
	Now() time.Time
}

// systemClock is a Clock backed by the system time.
type systemClock struct{}

// Now returns the system time truncated to seconds.
func (systemClock) Now() time.Time {
	return time.Unix(time.Now().Unix(), 0)
}

// SystemClock returns a Clock backed by the system time with a resolution of
// one second.
func SystemClock() Clock {
	return systemClock{}
}

// ManualClock is a Clock that only moves when told to.  It is safe for
// concurrent access.
type ManualClock struct {
	mtx sync.Mutex
	now time.Time
}

// NewManualClock returns a clock set to the passed time.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the current time of the clock.
func (c *ManualClock) Now() time.Time {
	c.mtx.Lock()
	now := c.now
	c.mtx.Unlock()
	return now
}

// Advance moves the clock forward by the passed duration.
func (c *ManualClock) Advance(d time.Duration) {
	c.mtx.Lock()
	c.now = c.now.Add(d)
	c.mtx.Unlock()
}

// Set moves the clock to the passed time.
func (c *ManualClock) Set(now time.Time) {
	c.mtx.Lock()
	c.now = now
	c.mtx.Unlock()
}
