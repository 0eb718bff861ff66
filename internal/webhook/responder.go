package webhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
)

// lineResponder answers one event. The first batch of messages uses the
// event's reply token; anything beyond the per-reply limit is pushed to
// the chat in further batches.
type lineResponder struct {
	h          *Handler
	replyToken string
	chatID     string
	eventType  string
}

func (r *lineResponder) Send(ctx context.Context, resp bot.Response) error {
	messages := r.h.presenter.Present(resp)
	if len(messages) == 0 {
		return nil
	}
	if r.replyToken == "" || len(r.replyToken) < r.h.minReplyTokenLength {
		return fmt.Errorf("no usable reply token for %s event", r.eventType)
	}

	limit := r.h.maxMessagesPerReply
	first, rest := messages, []messaging_api.MessageInterface(nil)
	if len(messages) > limit {
		first, rest = messages[:limit], messages[limit:]
	}

	if err := r.throttle(ctx); err != nil {
		return err
	}
	if _, err := r.h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: r.replyToken,
		Messages:   first,
	}); err != nil {
		r.h.metrics.RecordWebhook(r.eventType, "reply_error", 0)
		if strings.Contains(err.Error(), "Invalid reply token") {
			return fmt.Errorf("reply token expired or used: %w", err)
		}
		return fmt.Errorf("reply message: %w", err)
	}

	for len(rest) > 0 {
		if r.chatID == "" {
			return fmt.Errorf("%d messages left without a chat to push to", len(rest))
		}
		batch := rest
		if len(batch) > limit {
			batch = rest[:limit]
		}
		rest = rest[len(batch):]

		if err := r.throttle(ctx); err != nil {
			return err
		}
		// The retry key makes LINE drop a duplicate if this push is retried.
		if _, err := r.h.client.PushMessage(&messaging_api.PushMessageRequest{
			To:       r.chatID,
			Messages: batch,
		}, uuid.NewString()); err != nil {
			r.h.metrics.RecordWebhook(r.eventType, "push_error", 0)
			return fmt.Errorf("push overflow messages: %w", err)
		}
	}
	return nil
}

// throttle waits on the global LINE API bucket.
func (r *lineResponder) throttle(ctx context.Context) error {
	if r.h.rateLimiter.Allow() {
		return nil
	}
	r.h.metrics.RecordRateLimiterDrop("global")
	r.h.logger.WarnContext(ctx, "Global rate limit exceeded; waiting")
	if err := r.h.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for LINE API quota: %w", err)
	}
	return nil
}
