// Package webhook receives LINE webhook callbacks, hands each event to the
// bot processor and delivers the answers through the Messaging API.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/ctxutil"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
	"github.com/butecodosdevs/buteco-linebot-go/internal/ratelimit"
)

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	client        Messenger
	metrics       *metrics.Metrics
	logger        *logger.Logger
	processor     *bot.Processor
	presenter     *Presenter
	rateLimiter   *ratelimit.Limiter // Global rate limiter for API calls
	showLoading   bool
	wg            sync.WaitGroup // WaitGroup for async event processing

	// LINE API constraints (from config.BotConfig)
	maxMessagesPerReply int
	maxEventsPerWebhook int
	minReplyTokenLength int
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	BotConfig     *config.BotConfig
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Processor     *bot.Processor
}

// NewHandler creates a new webhook handler. Without WithMessenger it talks
// to the real Messaging API using ChannelToken.
func NewHandler(cfg HandlerConfig, opts ...HandlerOption) (*Handler, error) {
	h := &Handler{
		channelSecret:       cfg.ChannelSecret,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger,
		processor:           cfg.Processor,
		presenter:           NewPresenter(nil),
		showLoading:         true,
		maxMessagesPerReply: cfg.BotConfig.MaxMessagesPerReply,
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
		minReplyTokenLength: cfg.BotConfig.MinReplyTokenLength,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.client == nil {
		client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
		if err != nil {
			return nil, fmt.Errorf("create messaging API client: %w", err)
		}
		h.client = client
	}
	if h.rateLimiter == nil {
		h.rateLimiter = ratelimit.NewGlobalLimiter(*cfg.BotConfig)
	}
	if h.maxMessagesPerReply <= 0 {
		h.maxMessagesPerReply = 5
	}
	return h, nil
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE wants the acknowledgement before any processing.
	c.Status(http.StatusOK)

	start := time.Now()
	h.metrics.RecordWebhook("batch", "received", 0)

	if h.maxEventsPerWebhook > 0 && len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()

		for _, event := range events {
			h.processEvent(context.Background(), event, start)
		}
	})
}

// processEvent handles a single webhook event
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface, webhookStart time.Time) {
	eventStart := time.Now()

	eventID, eventTimestamp, isRedelivery := extractEventMeta(event)
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
	}

	log := h.logger
	if isRedelivery != nil {
		log = log.WithField("is_redelivery", *isRedelivery)
	}
	if eventTimestamp > 0 {
		log = log.WithField("event_timestamp_ms", eventTimestamp)
	}

	var source webhook.SourceInterface
	out := &lineResponder{h: h}

	switch e := event.(type) {
	case webhook.MessageEvent:
		out.eventType, out.replyToken, source = "message", e.ReplyToken, e.Source
	case webhook.PostbackEvent:
		out.eventType, out.replyToken, source = "postback", e.ReplyToken, e.Source
	case webhook.FollowEvent:
		out.eventType, out.replyToken, source = "follow", e.ReplyToken, e.Source
	case webhook.JoinEvent:
		out.eventType, out.replyToken, source = "join", e.ReplyToken, e.Source
	default:
		log.DebugContext(ctx, "Unsupported event type", "event_type", fmt.Sprintf("%T", e))
		return
	}
	src := bot.SourceOf(source)
	out.chatID = src.ChatID

	if h.showLoading && src.Personal && h.shouldShowLoading(event) {
		if err := h.showLoadingAnimation(out.chatID); err != nil {
			log.WithError(err).WarnContext(ctx, "Failed to show loading animation")
		}
	}

	var sendErr error
	tracked := bot.ResponderFunc(func(ctx context.Context, r bot.Response) error {
		sendErr = out.Send(ctx, r)
		return sendErr
	})

	switch e := event.(type) {
	case webhook.MessageEvent:
		h.processor.ProcessMessage(ctx, e, tracked)
	case webhook.PostbackEvent:
		h.processor.ProcessPostback(ctx, e, tracked)
	case webhook.FollowEvent:
		h.processor.ProcessFollow(ctx, e, tracked)
	case webhook.JoinEvent:
		h.processor.ProcessJoin(ctx, e, tracked)
	}

	status := "success"
	if sendErr != nil {
		status = "error"
		log.WithError(sendErr).ErrorContext(ctx, "Failed to deliver reply", "event_type", out.eventType)
	}
	h.metrics.RecordWebhook(out.eventType, status, time.Since(eventStart))

	log.InfoContext(ctx, "Event processed",
		"event_type", out.eventType,
		"event_duration_ms", time.Since(eventStart).Milliseconds(),
		"batch_duration_ms", time.Since(webhookStart).Milliseconds(),
	)
}

func extractEventMeta(event webhook.EventInterface) (string, int64, *bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.PostbackEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.FollowEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	case webhook.JoinEvent:
		return e.WebhookEventId, e.Timestamp, boolPtr(e.DeliveryContext)
	default:
		return "", 0, nil
	}
}

func boolPtr(ctx *webhook.DeliveryContext) *bool {
	if ctx == nil {
		return nil
	}
	val := ctx.IsRedelivery
	return &val
}

// shouldShowLoading reports whether the event will be answered. Group
// chatter the bot ignores gets no typing indicator.
func (h *Handler) shouldShowLoading(event webhook.EventInterface) bool {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return bot.ExpectsReply(e)
	case webhook.PostbackEvent, webhook.FollowEvent, webhook.JoinEvent:
		return true
	default:
		return false
	}
}

// showLoadingAnimation shows the typing indicator. LINE only supports it
// in 1:1 chats.
func (h *Handler) showLoadingAnimation(chatID string) error {
	if chatID == "" {
		return nil
	}

	// LINE API: loadingSeconds must be 5-60 and a multiple of 5. 60 covers
	// the whole per-event processing window.
	req := &messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: 60,
	}
	if _, err := h.client.ShowLoadingAnimation(req); err != nil {
		return fmt.Errorf("show loading animation: %w", err)
	}
	return nil
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
