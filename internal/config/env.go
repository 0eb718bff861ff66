package config

// Environment variable keys. Backend URL keys keep the names used by the
// docker-compose stack of the backend services.
//
//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "LINE_CHANNEL_SECRET"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Backend collaborators
	EnvBalanceAPIURL   = "BALANCE_API_URL"
	EnvClientAPIURL    = "CLIENT_API_URL"
	EnvCoinAPIURL      = "COIN_API_URL"
	EnvBetAPIURL       = "BET_API_URL"
	EnvAIAPIURL        = "AI_API_URL"
	EnvPoliticalAPIURL = "POLITICAL_API_URL"
	EnvChallengeAPIURL = "CHALLENGE_API_URL"
	EnvAPITimeout      = "API_TIMEOUT"

	// Features
	EnvAIUsageCost   = "AI_USAGE_COST"
	EnvAdminUserIDs  = "ADMIN_USER_IDS"
	EnvSourceCodeURL = "SOURCE_CODE_URL"

	// Interactive sessions
	EnvSessionTTL           = "SESSION_TTL"
	EnvSessionSweepInterval = "SESSION_SWEEP_INTERVAL"

	// Webhook
	EnvWebhookTimeout = "WEBHOOK_TIMEOUT"

	// Rate Limits
	EnvGlobalRateRPS  = "GLOBAL_RATE_RPS"
	EnvUserRateBurst  = "USER_RATE_BURST"
	EnvUserRateRefill = "USER_RATE_REFILL"
	EnvAIRateBurst    = "AI_RATE_BURST"
	EnvAIRateRefill   = "AI_RATE_REFILL_PER_HOUR"

	// Chart storage (Cloudflare R2)
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
	EnvR2PublicBaseURL   = "R2_PUBLIC_BASE_URL"
	EnvR2ChartPrefix     = "R2_CHART_PREFIX"

	// Sentry (Better Stack Errors)
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack Logs
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics Auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)
