// Package sentry reports unexpected command failures to Better Stack
// through its Sentry-compatible ingestion endpoint.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/butecodosdevs/buteco-linebot-go/internal/ctxutil"
)

// Config holds the Better Stack error tracking settings.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the ingesting host, e.g. "errors.betterstack.com".
	Host string

	Environment string
	Release     string

	// SampleRate is the share of errors sent (0-1]; zero means all.
	SampleRate float64

	Debug bool
}

// DSN builds the Sentry DSN for Better Stack. The project ID is required
// by the SDK and ignored by the server.
func (c Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host)
}

// Initialize sets up the SDK. An empty Token leaves reporting disabled.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent. It reports whether the queue
// drained within timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is bound to the current hub.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureMessage sends a plain message event.
func CaptureMessage(message string) {
	sentry.CaptureMessage(message)
}

// CaptureExceptionWithContext captures err on the hub carried by ctx, or
// the global hub when ctx has none. The chat identifiers kept in ctx are
// attached as tags.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(Tags(ctx))
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		hub.CaptureException(err)
	})
}

// Tags collects the identifiers of the event being handled.
func Tags(ctx context.Context) map[string]string {
	tags := make(map[string]string, 3)
	if v := ctxutil.GetCommand(ctx); v != "" {
		tags["command"] = v
	}
	if v := ctxutil.GetChatID(ctx); v != "" {
		tags["chat_id"] = v
	}
	if v := ctxutil.GetRequestID(ctx); v != "" {
		tags["request_id"] = v
	}
	return tags
}

// Reporter returns the error hook installed on the command router. It is
// a no-op until Initialize has bound a client.
func Reporter() func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		if !IsEnabled() {
			return
		}
		CaptureExceptionWithContext(ctx, err)
	}
}
