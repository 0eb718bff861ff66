// Package system implements help, health and informational commands.
package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/data"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Module constants
const (
	ModuleName = "system"
	senderName = "Buteco"
)

// Health checks the backends.
type Health interface {
	Check(ctx context.Context) []backend.ServiceHealth
}

// Handler handles system commands.
type Handler struct {
	catalog   data.Catalog
	health    Health
	sourceURL string
	sessions  bot.Sessions
	logger    *logger.Logger
}

// NewHandler creates a system handler.
func NewHandler(catalog data.Catalog, health Health, sourceURL string, sessions bot.Sessions, log *logger.Logger) *Handler {
	return &Handler{
		catalog:   catalog,
		health:    health,
		sourceURL: sourceURL,
		sessions:  sessions,
		logger:    log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the system commands.
func (h *Handler) Register(r *bot.Router) {
	r.Register("ajuda", nil, h.handleHelp, "help")
	r.Register("health_check", nil, h.handleHealth, "status")
	r.Register("codigo_fonte", nil, h.handleSource)
}

func (h *Handler) handleHelp(ctx context.Context, inv *bot.Invocation) error {
	pages := pagination.Build(h.catalog.Sections, 1, func(items []data.Section, p pagination.PageInfo) render.Message {
		msg := render.Info("🤖 Buteco Bot - Comandos", "")
		if len(items) == 0 {
			msg.Body = "Nenhum comando disponível."
			return msg
		}
		s := items[0]
		var b strings.Builder
		b.WriteString(s.Title)
		for _, c := range s.Commands {
			b.WriteString("\n\n" + c.Usage)
			if c.Admin {
				b.WriteString(" 🔒")
			}
			b.WriteString("\n" + c.Description)
		}
		msg.Body = b.String()
		if p.Index == p.Total-1 && len(h.catalog.Tips) > 0 {
			msg = msg.WithField("💡 Dicas", "• "+strings.Join(h.catalog.Tips, "\n• "), false)
		}
		return msg
	})
	return inv.Reply(ctx, h.sessions.Paginate(inv.ActorID, pages).As(senderName))
}

// serviceNames maps backend keys to the names shown by health_check.
var serviceNames = map[string]string{
	"balance":   "Balance API",
	"client":    "Client API",
	"coin":      "Coin API",
	"bet":       "Bet API",
	"ai":        "AI API",
	"political": "Political API",
	"challenge": "Challenge API",
}

func (h *Handler) handleHealth(ctx context.Context, inv *bot.Invocation) error {
	results := h.health.Check(ctx)

	msg := render.Info("🔧 Status do Sistema", "")
	online := 0
	for _, s := range results {
		name := serviceNames[s.Name]
		if name == "" {
			name = s.Name
		}
		value := s.Label()
		if s.State != backend.StateOffline {
			value += " · " + s.Latency.Round(time.Millisecond).String()
		}
		if s.State == backend.StateOnline {
			online++
		}
		msg = msg.WithField(name, value, true)
	}
	msg = msg.WithField("🤖 Bot", "🟢 Online", true)
	msg.Body = fmt.Sprintf("%d de %d serviços online", online, len(results))
	if online < len(results) {
		h.logger.WarnContext(ctx, "Backends degraded", "online", online, "total", len(results))
	}
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) handleSource(ctx context.Context, inv *bot.Invocation) error {
	msg := render.Info("📦 Código Fonte", "O Buteco Bot é open source! Contribuições são bem-vindas.").
		WithField("Repositório", h.sourceURL, false)
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

// Welcome is the greeting sent when the bot is followed or added to a
// group.
func Welcome() []render.Message {
	return []render.Message{
		render.Info("👋 Bem-vindo ao Buteco Bot!",
			"Colete moedas, aposte em eventos, desafie os amigos e consulte o Mestre dos Magos.").
			WithField("Primeiros passos", "1. /registrar <nome>\n2. /coins para a primeira coleta\n3. /ajuda para ver todos os comandos", false),
	}
}
