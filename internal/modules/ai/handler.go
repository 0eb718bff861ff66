// Package ai implements the paid question command backed by the AI service.
package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Module constants
const (
	ModuleName = "ai"
	senderName = "Mestre dos Magos"
)

const (
	chargeDescription = "Pagamento por uso do serviço de IA"
	maxEchoLength     = 1024
)

// Limiter is the per-user admission check for AI questions.
type Limiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
	Available(key string) float64
}

// Handler handles AI commands.
type Handler struct {
	members *member.Directory
	balance *backend.BalanceClient
	ai      *backend.AIClient
	limiter Limiter
	cost    int64
	logger  *logger.Logger
}

// NewHandler creates an AI handler charging cost coins per question.
// limiter may be nil.
func NewHandler(members *member.Directory, balance *backend.BalanceClient, ai *backend.AIClient, limiter Limiter, cost int64, log *logger.Logger) *Handler {
	return &Handler{
		members: members,
		balance: balance,
		ai:      ai,
		limiter: limiter,
		cost:    cost,
		logger:  log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the AI commands.
func (h *Handler) Register(r *bot.Router) {
	r.Register("mestre_dos_magos", bot.ArgSpec{{Name: "pergunta", Kind: bot.ArgText}}, h.handleAsk, "ia")
	r.Register("uso_ia", nil, h.handleUsage)
}

// question is a parsed mestre_dos_magos invocation.
type question struct {
	Prompt   string
	Provider string
	System   string
}

// parseQuestion reads leading provider=<p> and system=<s> options. A
// system value may be quoted to span several words.
func parseQuestion(text string) question {
	var q question
	words := strings.Fields(text)
	i := 0
	for i < len(words) {
		w := words[i]
		switch {
		case strings.HasPrefix(w, "provider="):
			q.Provider = strings.TrimPrefix(w, "provider=")
			i++
		case strings.HasPrefix(w, "system="):
			val := strings.TrimPrefix(w, "system=")
			i++
			if quoted, ok := strings.CutPrefix(val, `"`); ok {
				parts := []string{quoted}
				for !strings.HasSuffix(parts[len(parts)-1], `"`) && i < len(words) {
					parts = append(parts, words[i])
					i++
				}
				val = strings.TrimSuffix(strings.Join(parts, " "), `"`)
			}
			q.System = val
		default:
			q.Prompt = strings.Join(words[i:], " ")
			return q
		}
	}
	return q
}

func (h *Handler) handleAsk(ctx context.Context, inv *bot.Invocation) error {
	q := parseQuestion(inv.Args.String("pergunta"))
	if q.Prompt == "" {
		return domerrors.NewValidationError("pergunta", "Escreva sua pergunta depois do comando.")
	}

	if h.limiter != nil && !h.limiter.Allow(inv.ActorID) {
		wait := h.limiter.RetryAfter(inv.ActorID)
		msg := render.Warning("⏳ Os magos precisam descansar",
			fmt.Sprintf("Você atingiu o limite de consultas. Tente novamente em %s.", humanize(wait)))
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	}

	user, err := h.members.Ensure(ctx, inv.ActorID)
	if err != nil {
		return err
	}
	current, err := h.balance.Balance(ctx, user.ID)
	if err != nil {
		return err
	}
	if current < h.cost {
		return inv.Reply(ctx, bot.Reply(h.insufficient()).As(senderName))
	}
	if err := h.balance.Subtract(ctx, user.ID, h.cost, chargeDescription); err != nil {
		if be, ok := domerrors.AsBackendError(err); ok && be.IsClientError() {
			return inv.Reply(ctx, bot.Reply(h.insufficient()).As(senderName))
		}
		return err
	}

	answer, err := h.ai.Generate(ctx, backend.GenerateRequest{
		Prompt:       q.Prompt,
		Provider:     q.Provider,
		SystemPrompt: q.System,
	})
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "AI generation failed after charge", "cost", h.cost)
		return domerrors.NewWrapper(ModuleName, "generate").
			Wrapf(err, "A IA não conseguiu responder agora. O custo de %s não é devolvido.", render.Coins(h.cost))
	}
	h.logger.InfoContext(ctx, "AI question answered", "provider", q.Provider, "answer_length", len(answer))

	provider := q.Provider
	if provider == "" {
		provider = "padrão"
	}
	msg := render.Info("🤖 Resposta da IA", answer).
		WithField("💬 Seu Prompt", render.Truncate(q.Prompt, maxEchoLength), false)
	if q.System != "" {
		msg = msg.WithField("🎯 Orientação", render.Truncate(q.System, maxEchoLength), false)
	}
	msg = msg.WithFooter(fmt.Sprintf("Custo: %s | Provider: %s", render.Coins(h.cost), provider))

	return inv.Reply(ctx, bot.Reply(render.SplitMessage(msg, render.DefaultLimit)...).As(senderName))
}

func (h *Handler) insufficient() render.Message {
	return render.Error("❌ Saldo Insuficiente",
		fmt.Sprintf("Você precisa de %s para usar a IA.\nUse /ver_coins para verificar seu saldo.", render.Coins(h.cost)))
}

func (h *Handler) handleUsage(ctx context.Context, inv *bot.Invocation) error {
	msg := render.Info("🔮 Consultas ao Mestre", "").
		WithField("Custo por consulta", render.Coins(h.cost), true)
	if h.limiter == nil {
		msg.Body = "Consultas ilimitadas."
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	}
	available := int64(math.Floor(h.limiter.Available(inv.ActorID)))
	msg = msg.WithField("Consultas disponíveis", render.Number(available), true)
	if available == 0 {
		msg = msg.WithFooter("Próxima consulta em " + humanize(h.limiter.RetryAfter(inv.ActorID)))
	}
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

// humanize renders a wait in whole minutes, or seconds under a minute.
func humanize(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d segundos", max(1, int(math.Ceil(d.Seconds()))))
	}
	return fmt.Sprintf("%d minutos", int(math.Ceil(d.Minutes())))
}
