// Timeout and interval defaults.
//
// LINE expects the webhook to be acknowledged quickly, so events are
// processed after the 200 OK is written. Each event then gets
// WebhookProcessing to call backends and reply; reply tokens stay valid
// well beyond that window.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds the handling of a single event, including
	// every backend call it makes. The loading animation is shown for 60s,
	// so a reply inside this window never outlives the animation.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout. LINE payloads are small.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the keep-alive idle timeout.
	WebhookHTTPIdle = 120 * time.Second
)

// Backend timeouts
const (
	// BackendRequest is the default per-call timeout for backend APIs.
	BackendRequest = 10 * time.Second

	// BackendHealthCheck is the per-call timeout used by health_check.
	BackendHealthCheck = 5 * time.Second

	// AIGenerate is the per-call timeout for the AI backend, which is slower
	// than the CRUD services.
	AIGenerate = 45 * time.Second
)

// Interactive sessions
const (
	// SessionIdle is how long a paginated view or dialog stays usable
	// without interaction.
	SessionIdle = 180 * time.Second

	// SessionSweepInterval is how often expired sessions are evicted.
	SessionSweepInterval = 30 * time.Second
)

// Background job intervals
const (
	// RateLimiterCleanupInterval is how often inactive user limiters are evicted.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
