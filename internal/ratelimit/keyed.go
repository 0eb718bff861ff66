package ratelimit

import (
	"sync"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name identifies the limiter in metrics ("user", "ai").
	Name string

	Burst      float64 // bucket capacity
	RefillRate float64 // tokens per second

	// DailyLimit adds a rolling 24h cap on top of the bucket. 0 disables it.
	DailyLimit int

	// CleanupPeriod is how often idle keys are forgotten.
	CleanupPeriod time.Duration

	Metrics *metrics.Metrics
}

// KeyedLimiter keeps one token bucket per key (a LINE user ID). Keys whose
// bucket has refilled and whose daily window is empty are dropped by a
// background sweep; call Stop to end it.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*keyedEntry
	config  KeyedConfig
	stopCh  chan struct{}
	once    sync.Once
}

// keyedEntry's mutex makes the two-layer check-then-consume atomic.
type keyedEntry struct {
	mu      sync.Mutex
	limiter *Limiter
	daily   *SlidingWindowCounter
}

// NewKeyedLimiter creates a per-key limiter and starts its cleanup loop.
//
// Example:
//
//	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
//	    Name:          "user",
//	    Burst:         10,
//	    RefillRate:    0.5,
//	    CleanupPeriod: 5 * time.Minute,
//	})
//	defer limiter.Stop()
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Allow takes a token for key. Both the bucket and, when configured, the
// daily cap must admit the request; neither is charged otherwise. An empty
// key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	entry := kl.entry(key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.daily.Check() || !entry.limiter.Check() {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
		return false
	}
	entry.daily.Consume()
	entry.limiter.Consume()
	return true
}

// RetryAfter returns how long key must wait for its next token.
func (kl *KeyedLimiter) RetryAfter(key string) time.Duration {
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return 0
	}
	return entry.limiter.RetryAfter()
}

func (kl *KeyedLimiter) entry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if entry, ok = kl.entries[key]; ok {
		return entry
	}
	entry = &keyedEntry{
		limiter: New(kl.config.Burst, kl.config.RefillRate),
		daily:   NewSlidingWindowCounter(kl.config.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = entry
	return entry
}

// Available returns key's current tokens, Burst for an unknown key.
func (kl *KeyedLimiter) Available(key string) float64 {
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return kl.config.Burst
	}
	return entry.limiter.Available()
}

// DailyRemaining returns key's remaining daily quota, -1 when disabled.
func (kl *KeyedLimiter) DailyRemaining(key string) int {
	if kl.config.DailyLimit <= 0 {
		return -1
	}
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return kl.config.DailyLimit
	}
	return entry.daily.Remaining()
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.sweep()
		}
	}
}

func (kl *KeyedLimiter) sweep() {
	kl.mu.Lock()
	for key, entry := range kl.entries {
		if entry.limiter.IsFull() && entry.daily.Idle() {
			delete(kl.entries, key)
		}
	}
	count := len(kl.entries)
	kl.mu.Unlock()

	kl.config.Metrics.SetRateLimiterKeys(kl.config.Name, count)
}

// Stop ends the cleanup loop. Safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	kl.once.Do(func() { close(kl.stopCh) })
}
