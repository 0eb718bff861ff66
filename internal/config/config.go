// Package config provides application configuration management.
// It loads settings from environment variables (optionally from a .env
// file) and provides defaults for backends, sessions, timeouts and limits.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names used as keys in Config.Backends, in metrics and in logs.
const (
	BackendBalance   = "balance"
	BackendClient    = "client"
	BackendCoin      = "coin"
	BackendBet       = "bet"
	BackendAI        = "ai"
	BackendPolitical = "political"
	BackendChallenge = "challenge"
)

// BackendNames lists every backend collaborator in display order.
var BackendNames = []string{
	BackendBalance,
	BackendClient,
	BackendCoin,
	BackendBet,
	BackendAI,
	BackendPolitical,
	BackendChallenge,
}

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Backends maps a backend name to its base URL.
	Backends   map[string]string
	APITimeout time.Duration

	// Feature Configuration
	AIUsageCost   int
	AdminUserIDs  []string
	SourceCodeURL string

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // empty = no auth

	// Observability
	SentryToken         string
	SentryHost          string
	SentryEnvironment   string
	SentrySampleRate    float64
	BetterStackToken    string
	BetterStackEndpoint string

	// Chart storage; disabled when R2AccountID is empty.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	R2ChartPrefix     string

	Bot BotConfig
}

// BotConfig holds webhook, session and rate-limit settings.
type BotConfig struct {
	WebhookTimeout time.Duration

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Token bucket per user for commands
	UserRateLimitBurst        float64
	UserRateLimitRefillPerSec float64

	// Token bucket per user for the AI command
	AIBurstTokens   float64
	AIRefillPerHour float64

	GlobalRateLimitRPS float64

	// LINE API constraints
	MaxMessagesPerReply int
	MaxEventsPerWebhook int
	MinReplyTokenLength int
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		Backends: map[string]string{
			BackendBalance:   getEnv(EnvBalanceAPIURL, "http://balance-api:5000"),
			BackendClient:    getEnv(EnvClientAPIURL, "http://client-api:5000"),
			BackendCoin:      getEnv(EnvCoinAPIURL, "http://coin-api:5000"),
			BackendBet:       getEnv(EnvBetAPIURL, "http://bet-api:5000"),
			BackendAI:        getEnv(EnvAIAPIURL, "http://ai-api:8080"),
			BackendPolitical: getEnv(EnvPoliticalAPIURL, "http://political-api:5000"),
			BackendChallenge: getEnv(EnvChallengeAPIURL, "http://challenge-api:5000"),
		},
		APITimeout: getDurationEnv(EnvAPITimeout, BackendRequest),

		AIUsageCost:   getIntEnv(EnvAIUsageCost, 100),
		AdminUserIDs:  getListEnv(EnvAdminUserIDs),
		SourceCodeURL: getEnv(EnvSourceCodeURL, "https://github.com/butecodosdevs/modular-buteco-bot"),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryToken:         getEnv(EnvSentryToken, ""),
		SentryHost:          getEnv(EnvSentryHost, ""),
		SentryEnvironment:   getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:    getFloatEnv(EnvSentrySampleRate, 1.0),
		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2PublicBaseURL:   getEnv(EnvR2PublicBaseURL, ""),
		R2ChartPrefix:     getEnv(EnvR2ChartPrefix, "charts/"),

		Bot: BotConfig{
			WebhookTimeout:            getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			SessionTTL:                getDurationEnv(EnvSessionTTL, SessionIdle),
			SessionSweepInterval:      getDurationEnv(EnvSessionSweepInterval, SessionSweepInterval),
			UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 10.0),
			UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.5),
			AIBurstTokens:             getFloatEnv(EnvAIRateBurst, 5.0),
			AIRefillPerHour:           getFloatEnv(EnvAIRateRefill, 10.0),
			GlobalRateLimitRPS:        getFloatEnv(EnvGlobalRateRPS, 80.0),
			MaxMessagesPerReply:       5,
			MaxEventsPerWebhook:       100,
			MinReplyTokenLength:       10,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelAccessToken))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelSecret))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	for _, name := range BackendNames {
		raw := c.Backends[name]
		u, err := url.Parse(raw)
		if raw == "" || err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("backend %s: invalid base URL %q", name, raw))
		}
	}
	if c.APITimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvAPITimeout, c.APITimeout))
	}
	if c.AIUsageCost < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvAIUsageCost, c.AIUsageCost))
	}
	if c.SentryToken != "" && c.SentryHost == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSentryHost, EnvSentryToken))
	}
	if c.R2Enabled() && (c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2BucketName == "" || c.R2PublicBaseURL == "") {
		errs = append(errs, errors.New("R2 chart storage requires access key, secret, bucket and public base URL"))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks bot limits and durations.
func (b *BotConfig) Validate() error {
	var errs []error
	if b.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("webhook timeout must be positive, got %v", b.WebhookTimeout))
	}
	if b.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session TTL must be positive, got %v", b.SessionTTL))
	}
	if b.SessionSweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("session sweep interval must be positive, got %v", b.SessionSweepInterval))
	}
	if b.UserRateLimitBurst <= 0 || b.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, errors.New("user rate limit burst and refill must be positive"))
	}
	if b.AIBurstTokens <= 0 || b.AIRefillPerHour <= 0 {
		errs = append(errs, errors.New("AI rate limit burst and refill must be positive"))
	}
	if b.GlobalRateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("global rate limit RPS must be positive, got %f", b.GlobalRateLimitRPS))
	}
	if b.MaxMessagesPerReply < 1 || b.MaxMessagesPerReply > 5 {
		errs = append(errs, fmt.Errorf("max messages per reply must be 1-5 (LINE API limit), got %d", b.MaxMessagesPerReply))
	}
	return errors.Join(errs...)
}

// R2Enabled reports whether chart images can be uploaded.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != ""
}

// IsAdmin reports whether userID is in the admin allowlist.
func (c *Config) IsAdmin(_ context.Context, userID string) bool {
	return userID != "" && slices.Contains(c.AdminUserIDs, userID)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping blanks.
func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
