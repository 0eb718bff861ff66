package logger

import (
	"context"
	"log/slog"

	"github.com/butecodosdevs/buteco-linebot-go/internal/ctxutil"
)

// ContextHandler decorates another slog.Handler and adds user_id, chat_id,
// request_id and command attributes taken from the record's context.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enriches the record before delegating.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		addIfSet(&r, "user_id", ctxutil.GetUserID(ctx))
		addIfSet(&r, "chat_id", ctxutil.GetChatID(ctx))
		addIfSet(&r, "request_id", ctxutil.GetRequestID(ctx))
		addIfSet(&r, "command", ctxutil.GetCommand(ctx))
	}
	return h.handler.Handle(ctx, r)
}

func addIfSet(r *slog.Record, key, value string) {
	if value != "" {
		r.AddAttrs(slog.String(key, value))
	}
}

// WithAttrs returns a ContextHandler wrapping the handler with attrs applied.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a ContextHandler wrapping the handler with the group applied.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
