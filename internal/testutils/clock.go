package testutils

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a manually advanced clock. Timers scheduled with AfterFunc fire
// from Advance, on the caller's goroutine, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	nextID int

	// Scheduled records the delay of every AfterFunc call.
	Scheduled []time.Duration
}

type fakeTimer struct {
	id       int
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

// NewFakeClock returns a clock set to a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run once the clock has advanced by d.
// The returned function cancels the timer and reports whether it was still pending.
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &fakeTimer{id: c.nextID, deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	c.Scheduled = append(c.Scheduled, d)

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Advance moves the clock forward and fires every timer that became due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	var due []*fakeTimer
	var pending []*fakeTimer
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if !t.deadline.After(now) {
			t.fired = true
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].id < due[j].id
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
