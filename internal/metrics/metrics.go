// Package metrics defines the Prometheus metrics exported on /metrics.
// Every Record method is safe to call on a nil *Metrics, which keeps
// tests and optional wiring free of nil checks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Backend metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendDurationSeconds *prometheus.HistogramVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	// Session metrics
	SessionsActive     *prometheus.GaugeVec
	SessionsEndedTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterKeys    *prometheus.GaugeVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Chart metrics
	ChartUploadsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		BackendRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_backend_requests_total",
				Help: "Total backend API calls by backend and outcome",
			},
			[]string{"backend", "outcome"}, // outcome: success, client_error, server_error, transport_error
		),

		BackendDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buteco_backend_duration_seconds",
				Help:    "Backend API call duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"backend"},
		),

		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buteco_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"event_type"}, // event_type: message, postback, follow, join
		),

		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_webhook_requests_total",
				Help: "Total webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, reply_error
		),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_commands_total",
				Help: "Total dispatched commands by name and status",
			},
			[]string{"command", "status"}, // status: success, error, panic, invalid_args, no_reply
		),

		SessionsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buteco_sessions_active",
				Help: "Live interactive sessions by kind",
			},
			[]string{"kind"}, // kind: pagination, confirmation, selection
		),

		SessionsEndedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_sessions_ended_total",
				Help: "Sessions removed from the registry by kind and reason",
			},
			[]string{"kind", "reason"}, // reason: resolved, deleted, expired, shutdown
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_rate_limiter_dropped_total",
				Help: "Total requests rejected by a rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, ai, global
		),

		RateLimiterKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buteco_rate_limiter_active_keys",
				Help: "Users currently tracked by a per-user rate limiter",
			},
			[]string{"limiter_type"},
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_singleflight_dedup_total",
				Help: "Backend lookups served from an in-flight call instead of a new request",
			},
			[]string{"operation"},
		),

		ChartUploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buteco_chart_uploads_total",
				Help: "Political chart uploads by status",
			},
			[]string{"status"}, // status: success, error, disabled
		),
	}
}

// RecordBackend records one backend call.
func (m *Metrics) RecordBackend(backend, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequestsTotal.WithLabelValues(backend, outcome).Inc()
	m.BackendDurationSeconds.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordWebhook records webhook event processing.
func (m *Metrics) RecordWebhook(eventType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration.Seconds())
}

// RecordCommand records the final status of a dispatched command.
func (m *Metrics) RecordCommand(command, status string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, status).Inc()
}

// SessionOpened increments the live-session gauge.
func (m *Metrics) SessionOpened(kind string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(kind).Inc()
}

// SessionEnded decrements the live-session gauge and counts the reason.
func (m *Metrics) SessionEnded(kind, reason string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(kind).Dec()
	m.SessionsEndedTotal.WithLabelValues(kind, reason).Inc()
}

// RecordRateLimiterDrop records a request rejected by a limiter.
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterKeys sets how many users a per-user limiter tracks.
func (m *Metrics) SetRateLimiterKeys(limiterType string, count int) {
	if m == nil {
		return
	}
	m.RateLimiterKeys.WithLabelValues(limiterType).Set(float64(count))
}

// RecordSingleflightDedup records a lookup that joined an in-flight call.
func (m *Metrics) RecordSingleflightDedup(operation string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(operation).Inc()
}

// RecordChartUpload records a chart upload attempt.
func (m *Metrics) RecordChartUpload(status string) {
	if m == nil {
		return
	}
	m.ChartUploadsTotal.WithLabelValues(status).Inc()
}
