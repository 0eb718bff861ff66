// Package ctxutil carries per-event identifiers (actor, chat, request,
// command) through context so logs and metrics can be correlated.
package ctxutil

import (
	"context"
)

type contextKey int

const (
	userIDKey contextKey = iota
	chatIDKey
	requestIDKey
	commandKey
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithUserID stores the LINE user ID of the actor that triggered the event.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, userIDKey, userID)
}

// GetUserID returns the actor's user ID, or "" when absent.
func GetUserID(ctx context.Context) string {
	return getString(ctx, userIDKey)
}

// WithChatID stores the conversation (user, group or room) the event came from.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return withString(ctx, chatIDKey, chatID)
}

// GetChatID returns the chat ID, or "" when absent.
func GetChatID(ctx context.Context) string {
	return getString(ctx, chatIDKey)
}

// WithRequestID stores the webhook event ID used for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID, or "" when absent.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, requestIDKey)
}

// WithCommand stores the command name being dispatched.
func WithCommand(ctx context.Context, command string) context.Context {
	return withString(ctx, commandKey, command)
}

// GetCommand returns the command name, or "" outside a dispatch.
func GetCommand(ctx context.Context) string {
	return getString(ctx, commandKey)
}

// PreserveTracing returns a fresh context that keeps only the identifiers
// above. Webhook events are processed after the HTTP response is written,
// so the request context cannot be used as the parent.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	for _, key := range []contextKey{userIDKey, chatIDKey, requestIDKey, commandKey} {
		if v := getString(ctx, key); v != "" {
			out = withString(out, key, v)
		}
	}
	return out
}
