package ratelimit

import (
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
)

// Limiter names used in metrics.
const (
	NameUser   = "user"
	NameAI     = "ai"
	NameGlobal = "global"
)

// NewUserLimiter creates the per-user limiter applied to every command and
// button press.
func NewUserLimiter(cfg config.BotConfig, m *metrics.Metrics) *KeyedLimiter {
	return NewKeyedLimiter(KeyedConfig{
		Name:          NameUser,
		Burst:         cfg.UserRateLimitBurst,
		RefillRate:    cfg.UserRateLimitRefillPerSec,
		CleanupPeriod: 5 * time.Minute,
		Metrics:       m,
	})
}

// NewAILimiter creates the per-user limiter for AI questions, refilled
// hourly.
func NewAILimiter(cfg config.BotConfig, m *metrics.Metrics) *KeyedLimiter {
	return NewKeyedLimiter(KeyedConfig{
		Name:          NameAI,
		Burst:         cfg.AIBurstTokens,
		RefillRate:    cfg.AIRefillPerHour / 3600,
		CleanupPeriod: 10 * time.Minute,
		Metrics:       m,
	})
}

// NewGlobalLimiter creates the bucket shared by all outbound LINE API calls.
func NewGlobalLimiter(cfg config.BotConfig) *Limiter {
	return New(cfg.GlobalRateLimitRPS, cfg.GlobalRateLimitRPS)
}
