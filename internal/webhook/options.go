package webhook

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/butecodosdevs/buteco-linebot-go/internal/ratelimit"
)

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithMessenger replaces the LINE API client, e.g. with a fake in tests.
func WithMessenger(m Messenger) HandlerOption {
	return func(h *Handler) {
		h.client = m
	}
}

// WithGlobalLimiter sets the bucket shared by all outbound LINE API calls.
func WithGlobalLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *Handler) {
		h.rateLimiter = l
	}
}

// WithSender signs every outgoing message with a custom name and avatar.
func WithSender(s *messaging_api.Sender) HandlerOption {
	return func(h *Handler) {
		h.presenter = NewPresenter(s)
	}
}

// WithLoadingAnimation toggles the typing indicator shown while an event
// is processed.
func WithLoadingAnimation(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.showLoading = enabled
	}
}
