// Package account implements registration and account deletion.
package account

import (
	"context"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Module constants
const (
	ModuleName = "account"
	senderName = "Buteco"
)

// Dialog continuations.
const (
	contDelete = "account.delete"
	contKeep   = "account.keep"
)

// Handler handles account commands.
type Handler struct {
	users    *backend.UserClient
	sessions bot.Sessions
	logger   *logger.Logger
}

// NewHandler creates an account handler.
func NewHandler(users *backend.UserClient, sessions bot.Sessions, log *logger.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		logger:   log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the account commands and dialog continuations.
func (h *Handler) Register(r *bot.Router) {
	r.Register("registrar", bot.ArgSpec{
		{Name: "nome", Kind: bot.ArgString},
		{Name: "bio", Kind: bot.ArgText, Optional: true},
	}, h.handleRegister)
	r.Register("deletar_conta", nil, h.handleDelete)

	h.sessions.Dialogs.Handle(contDelete, h.onDeleteConfirmed)
	h.sessions.Dialogs.Handle(contKeep, h.onDeleteCancelled)
}

func (h *Handler) handleRegister(ctx context.Context, inv *bot.Invocation) error {
	name := inv.Args.String("nome")
	if err := h.users.Register(ctx, inv.ActorID, name); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "User registered")

	msg := render.Success("✅ Registro Completo!", "Bem-vindo ao Buteco Bot, "+name+"!").
		WithField("LINE ID", inv.ActorID, true).
		WithField("Username", name, true)
	if bio := inv.Args.String("bio"); bio != "" {
		msg = msg.WithField("Bio", bio, false)
	}
	msg = msg.WithFooter("Use /ajuda para ver os comandos disponíveis")
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) handleDelete(ctx context.Context, inv *bot.Invocation) error {
	prompt := render.Warning("⚠️ Confirmar Exclusão de Conta",
		"ATENÇÃO: Esta ação é irreversível!\n\nVocê perderá:\n• Todas as suas moedas\n• Histórico de apostas\n• Estatísticas\n\nTem certeza que deseja continuar?")
	resp, err := h.sessions.Confirm(inv.ActorID, prompt,
		dialog.Continuation{Name: contDelete},
		dialog.Continuation{Name: contKeep},
	)
	if err != nil {
		return err
	}
	return inv.Reply(ctx, resp.As(senderName))
}

func (h *Handler) onDeleteConfirmed(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	if err := h.users.Delete(ctx, res.OwnerID); err != nil {
		return dialog.Reply{}, err
	}
	h.logger.InfoContext(ctx, "User deleted account")
	return dialog.Reply{
		Messages: []render.Message{render.Success("✅ Conta Deletada", "Sua conta foi deletada com sucesso. Até logo!")},
		Persona:  senderName,
	}, nil
}

func (h *Handler) onDeleteCancelled(context.Context, dialog.Result) (dialog.Reply, error) {
	return dialog.Reply{
		Messages: []render.Message{render.Info("❌ Cancelado", "A exclusão da conta foi cancelada.")},
		Persona:  senderName,
	}, nil
}
