package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives a counter's notion of now.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCounter(limit int, window time.Duration) (*SlidingWindowCounter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewSlidingWindowCounter(limit, window)
	c.now = clock.now
	c.windowStart = clock.t
	return c, clock
}

func TestNewSlidingWindowCounter_Disabled(t *testing.T) {
	t.Parallel()
	var c *SlidingWindowCounter = NewSlidingWindowCounter(0, time.Hour)
	assert.Nil(t, c)
	assert.True(t, c.Allow())
	assert.True(t, c.Check())
	assert.Equal(t, -1, c.Remaining())
	assert.True(t, c.Idle())
	c.Consume()
}

func TestSlidingWindowCounter_Allow(t *testing.T) {
	t.Parallel()
	c, _ := newTestCounter(5, time.Hour)
	for i := range 5 {
		assert.True(t, c.Allow(), "request %d", i+1)
	}
	assert.False(t, c.Allow())
	assert.Equal(t, 0, c.Remaining())
}

func TestSlidingWindowCounter_WeightedPreviousWindow(t *testing.T) {
	t.Parallel()
	c, clock := newTestCounter(10, time.Hour)
	for range 10 {
		c.Allow()
	}

	// Halfway through the next window half of the previous count remains.
	clock.t = clock.t.Add(90 * time.Minute)
	assert.Equal(t, 5, c.Remaining())
	assert.False(t, c.Idle())
}

func TestSlidingWindowCounter_LongGapForgetsHistory(t *testing.T) {
	t.Parallel()
	c, clock := newTestCounter(3, time.Hour)
	for range 3 {
		c.Allow()
	}
	clock.t = clock.t.Add(3 * time.Hour)
	assert.True(t, c.Idle())
	assert.Equal(t, 3, c.Remaining())
}

func TestSlidingWindowCounter_CheckConsume(t *testing.T) {
	t.Parallel()
	c, _ := newTestCounter(1, time.Hour)
	assert.True(t, c.Check())
	c.Consume()
	assert.False(t, c.Check())
	c.Consume()
	assert.Equal(t, 0, c.Remaining())
}

func TestSlidingWindowCounter_Concurrency(t *testing.T) {
	t.Parallel()
	c := NewSlidingWindowCounter(50, time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Go(func() {
			if c.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
