package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/ctxutil"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// LINE API limits on inbound payloads.
const (
	maxTextLength     = 20000
	maxPostbackLength = 300
)

// Limiter is a per-key admission check.
type Limiter interface {
	Allow(key string) bool
}

// Processor turns LINE events into router invocations and engine actions.
type Processor struct {
	router  *Router
	pages   *pagination.Engine
	dialogs *dialog.Engine
	limiter Limiter
	logger  *logger.Logger

	timeout time.Duration
	welcome []render.Message
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Router      *Router
	Pages       *pagination.Engine
	Dialogs     *dialog.Engine
	UserLimiter Limiter // optional
	Logger      *logger.Logger
	BotConfig   *config.BotConfig
	// Welcome is sent on follow and join events.
	Welcome []render.Message
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		router:  cfg.Router,
		pages:   cfg.Pages,
		dialogs: cfg.Dialogs,
		limiter: cfg.UserLimiter,
		logger:  cfg.Logger,
		timeout: cfg.BotConfig.WebhookTimeout,
		welcome: cfg.Welcome,
	}
}

// ProcessMessage handles a message event. Only text messages are commands.
// In groups and rooms a bare command name needs a mention of the bot; a
// "/" or "!" prefix always works.
func (p *Processor) ProcessMessage(ctx context.Context, event webhook.MessageEvent, out Responder) {
	textMsg, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return
	}
	src := SourceOf(event.Source)
	ctx = p.scope(ctx, src)

	if n := utf8.RuneCountInString(textMsg.Text); n > maxTextLength {
		p.logger.WarnContext(ctx, "Text message too long", "length", n)
		_, prefixed := splitCommand(strings.TrimSpace(textMsg.Text))
		if src.Personal || prefixed || isBotMentioned(textMsg) {
			err := domerrors.NewValidationError("texto",
				fmt.Sprintf("Mensagem longa demais. O limite é de %d caracteres.", maxTextLength))
			p.send(ctx, out, Reply(render.FromError(err)))
		}
		return
	}

	tokens := tokenizeMessage(textMsg.Text, textMsg.Mention)
	mentioned := isBotMentioned(textMsg)
	if len(tokens) == 0 {
		if mentioned {
			p.send(ctx, out, Reply(render.Info("👋 Olá!", "Envie /ajuda para ver a lista de comandos.")))
		}
		return
	}

	name, prefixed := splitCommand(tokens[0].Text)
	if name == "" {
		return
	}
	if !prefixed && !src.Personal && !mentioned {
		return
	}

	if !p.allow(ctx, src) {
		p.send(ctx, out, Reply(render.FromError(domerrors.ErrRateLimitExceeded)))
		return
	}

	inv := NewInvocation(name, src.UserID, src.ChatID, tokens[1:], out)
	ctx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.timeout)
	defer cancel()
	p.router.Dispatch(ctx, inv)
}

// ProcessPostback handles a button press: pagination controls, dialog
// actions or module actions.
func (p *Processor) ProcessPostback(ctx context.Context, event webhook.PostbackEvent, out Responder) {
	src := SourceOf(event.Source)
	ctx = p.scope(ctx, src)

	if event.Postback == nil || event.Postback.Data == "" {
		return
	}
	data := event.Postback.Data
	if len(data) > maxPostbackLength {
		p.logger.WarnContext(ctx, "Postback data too long", "length", len(data))
		p.send(ctx, out, Reply(render.Error(render.TitleError, render.MsgSessionNotFound)))
		return
	}

	pb, err := ParsePostback(data)
	if err != nil {
		p.logger.WithError(err).WarnContext(ctx, "Invalid postback", "data", data)
		p.send(ctx, out, Reply(render.Error(render.TitleError, render.MsgSessionNotFound)))
		return
	}

	if !p.allow(ctx, src) {
		p.send(ctx, out, Reply(render.FromError(domerrors.ErrRateLimitExceeded)))
		return
	}

	ctx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.timeout)
	defer cancel()

	switch pb.Kind {
	case PostbackPage:
		inv := NewInvocation("pagination", src.UserID, src.ChatID, nil, out)
		p.router.Run(ctx, inv, func(ctx context.Context, inv *Invocation) error {
			return p.navigate(ctx, inv, pb)
		})
	case PostbackDialog:
		inv := NewInvocation("dialog", src.UserID, src.ChatID, nil, out)
		p.router.Run(ctx, inv, func(ctx context.Context, inv *Invocation) error {
			reply, err := p.dialogs.Resolve(ctx, pb.SessionID, inv.ActorID, pb.Action)
			if err != nil {
				return err
			}
			return inv.Reply(ctx, FromDialogReply(reply))
		})
	default:
		inv := NewInvocation(pb.Module+":"+pb.ModAction, src.UserID, src.ChatID, nil, out)
		p.router.DispatchPostback(ctx, inv, pb)
	}
}

func (p *Processor) navigate(ctx context.Context, inv *Invocation, pb PostbackData) error {
	if pb.Delete {
		if err := p.pages.Delete(pb.SessionID, inv.ActorID); err != nil {
			return err
		}
		return inv.ReplyMessages(ctx, render.Dismissed())
	}
	view, err := p.pages.Navigate(pb.SessionID, inv.ActorID, pb.Nav)
	if err != nil {
		return err
	}
	return inv.Reply(ctx, PageResponse(view))
}

// ProcessFollow greets a user who added the bot.
func (p *Processor) ProcessFollow(ctx context.Context, event webhook.FollowEvent, out Responder) {
	ctx = p.scope(ctx, SourceOf(event.Source))
	p.logger.InfoContext(ctx, "New user followed the bot")
	p.send(ctx, out, Reply(p.welcome...))
}

// ProcessJoin greets a group or room the bot was added to.
func (p *Processor) ProcessJoin(ctx context.Context, event webhook.JoinEvent, out Responder) {
	ctx = p.scope(ctx, SourceOf(event.Source))
	p.logger.InfoContext(ctx, "Bot joined a chat")
	p.send(ctx, out, Reply(p.welcome...))
}

func (p *Processor) scope(ctx context.Context, src Source) context.Context {
	ctx = ctxutil.WithUserID(ctx, src.UserID)
	return ctxutil.WithChatID(ctx, src.ChatID)
}

// allow applies the per-user limiter. Events without a user ID pass.
// Drops are counted by the limiter itself.
func (p *Processor) allow(ctx context.Context, src Source) bool {
	if p.limiter == nil || src.UserID == "" || p.limiter.Allow(src.UserID) {
		return true
	}
	p.logger.WarnContext(ctx, "User rate limit exceeded", "user", shortID(src.UserID))
	return false
}

func (p *Processor) send(ctx context.Context, out Responder, r Response) {
	if r.Empty() {
		return
	}
	if err := out.Send(ctx, r); err != nil {
		p.logger.WithError(err).WarnContext(ctx, "Failed to deliver reply")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return fmt.Sprintf("%s...", id[:8])
	}
	return id
}
