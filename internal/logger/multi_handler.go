package logger

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler sends each record to every enabled handler it wraps.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a MultiHandler, skipping nil handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	mh := &MultiHandler{}
	for _, h := range handlers {
		if h != nil {
			mh.handlers = append(mh.handlers, h)
		}
	}
	return mh
}

// Enabled reports whether at least one wrapped handler accepts level.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle clones the record for each enabled handler and joins their errors.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			errs = append(errs, handler.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *MultiHandler) apply(fn func(slog.Handler) slog.Handler) *MultiHandler {
	next := &MultiHandler{handlers: make([]slog.Handler, len(h.handlers))}
	for i, handler := range h.handlers {
		next.handlers[i] = fn(handler)
	}
	return next
}

// WithAttrs applies attrs to every wrapped handler.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.apply(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

// WithGroup applies the group to every wrapped handler.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.apply(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}
