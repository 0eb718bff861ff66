// Package ratelimit provides the token bucket limiters that protect the
// bot: one bucket per user for commands, a slower one per user for the AI
// command, and a global bucket in front of the LINE Messaging API.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket. It is safe for concurrent use.
//
// Tokens accrue at refillRate per second up to maxTokens; every admitted
// request takes one.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// New creates a full bucket holding maxTokens that refills at refillRate
// tokens per second.
//
// Example:
//
//	// LINE API: 80 requests per second, bursts of 80
//	limiter := ratelimit.New(80, 80)
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// NewPerHour creates a bucket of burst tokens refilled at perHour tokens
// per hour.
func NewPerHour(burst, perHour float64) *Limiter {
	return New(burst, perHour/3600)
}

// refill adds tokens for the time elapsed since the last refill.
// Must be called with mu held.
func (l *Limiter) refill() {
	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}

// Allow takes a token if one is available. It never blocks.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Check reports whether a token is available without taking it.
// Check followed by Consume is only atomic under a lock held by the caller.
func (l *Limiter) Check() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= 1
}

// Consume takes a token after a successful Check.
func (l *Limiter) Consume() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		l.tokens--
	}
}

// Wait blocks until a token is taken or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := l.untilNextLocked()
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryAfter returns how long until the next token is available, zero if
// one is available now.
func (l *Limiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		return 0
	}
	return l.untilNextLocked()
}

func (l *Limiter) untilNextLocked() time.Duration {
	if l.refillRate <= 0 {
		return time.Hour
	}
	return time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
}

// Available returns the current number of tokens.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}

// IsFull reports whether the bucket is at capacity, i.e. unused lately.
func (l *Limiter) IsFull() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= l.maxTokens
}

// Reset refills the bucket.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.maxTokens
	l.lastRefill = time.Now()
}
