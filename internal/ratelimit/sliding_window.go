package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter caps requests over a rolling window, such as the
// daily allowance of AI questions. It keeps the counts of the current and
// previous fixed windows and weights the previous one by how much of it
// still overlaps the rolling window:
//
//	effective = curr + prev * (window - elapsed) / window
//
// A nil counter is disabled and allows everything.
type SlidingWindowCounter struct {
	mu          sync.Mutex
	curr        int
	prev        int
	windowStart time.Time
	window      time.Duration
	limit       int
	now         func() time.Time
}

// NewSlidingWindowCounter allows limit requests per window. It returns
// nil, a disabled counter, when limit <= 0.
func NewSlidingWindowCounter(limit int, window time.Duration) *SlidingWindowCounter {
	if limit <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		windowStart: time.Now(),
		window:      window,
		limit:       limit,
		now:         time.Now,
	}
}

// Allow counts the request if it fits under the limit.
func (c *SlidingWindowCounter) Allow() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.effectiveLocked() >= float64(c.limit) {
		return false
	}
	c.curr++
	return true
}

// Check reports whether a request would fit, without counting it.
func (c *SlidingWindowCounter) Check() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.effectiveLocked() < float64(c.limit)
}

// Consume counts a request after a successful Check.
func (c *SlidingWindowCounter) Consume() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.effectiveLocked() < float64(c.limit) {
		c.curr++
	}
}

// Remaining returns the approximate quota left, -1 when disabled.
func (c *SlidingWindowCounter) Remaining() int {
	if c == nil {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return max(int(float64(c.limit)-c.effectiveLocked()), 0)
}

// Idle reports whether nothing was counted in either tracked window.
func (c *SlidingWindowCounter) Idle() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rotateLocked()
	return c.curr == 0 && c.prev == 0
}

// effectiveLocked returns the weighted count. Must be called with mu held.
func (c *SlidingWindowCounter) effectiveLocked() float64 {
	c.rotateLocked()
	elapsed := c.now().Sub(c.windowStart)
	overlap := float64(c.window-elapsed) / float64(c.window)
	overlap = min(max(overlap, 0), 1)
	return float64(c.curr) + float64(c.prev)*overlap
}

// rotateLocked advances to the window containing now. After a gap of more
// than one window the previous count is irrelevant and dropped.
func (c *SlidingWindowCounter) rotateLocked() {
	elapsed := c.now().Sub(c.windowStart)
	if elapsed < c.window {
		return
	}
	passed := int(elapsed / c.window)
	if passed == 1 {
		c.prev = c.curr
	} else {
		c.prev = 0
	}
	c.curr = 0
	c.windowStart = c.windowStart.Add(time.Duration(passed) * c.window)
}
