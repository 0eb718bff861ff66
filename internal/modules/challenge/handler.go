// Package challenge implements scored duels between two users.
package challenge

import (
	"context"
	"fmt"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Module constants
const (
	ModuleName = "challenge"
	senderName = "Arena de Desafios"
)

// Dialog continuations.
const (
	contAccept = "challenge.accept"
	contReject = "challenge.reject"
	contClose  = "challenge.close"
)

// Continuation argument keys.
const (
	argID          = "id"
	argChallenger  = "challenger"
	argDescription = "description"
)

const colorGold = "#F1C40F"

// Handler handles challenge commands.
type Handler struct {
	members    *member.Directory
	challenges *backend.ChallengeClient
	sessions   bot.Sessions
	logger     *logger.Logger
}

// NewHandler creates a challenge handler.
func NewHandler(members *member.Directory, challenges *backend.ChallengeClient, sessions bot.Sessions, log *logger.Logger) *Handler {
	return &Handler{
		members:    members,
		challenges: challenges,
		sessions:   sessions,
		logger:     log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the challenge commands and dialog continuations.
func (h *Handler) Register(r *bot.Router) {
	r.Register("desafiar", bot.ArgSpec{
		{Name: "usuario", Kind: bot.ArgUser},
		{Name: "descrição", Kind: bot.ArgText, Optional: true},
	}, h.handleChallenge)
	r.Register("desafio_ponto", bot.ArgSpec{{Name: "usuario", Kind: bot.ArgUser}}, h.handlePoint)
	r.Register("desafio_fechar", nil, h.handleClose)
	r.Register("mostrar_desafio", nil, h.handleShow, "desafios")

	h.sessions.Dialogs.Handle(contAccept, h.onAccepted)
	h.sessions.Dialogs.Handle(contReject, h.onRejected)
	h.sessions.Dialogs.Handle(contClose, h.onCloseSelected)
}

func (h *Handler) handleChallenge(ctx context.Context, inv *bot.Invocation) error {
	challenged, _ := inv.Args.User("usuario")
	if challenged == inv.ActorID {
		return domerrors.NewValidationError("usuario", "Você não pode desafiar a si mesmo!")
	}
	if _, err := h.members.Ensure(ctx, inv.ActorID); err != nil {
		return err
	}
	description := inv.Args.String("descrição")

	id, err := h.challenges.Create(ctx, backend.NewChallenge{
		ChallengerID: inv.ActorID,
		ChallengedID: challenged,
		ChannelID:    inv.ChatID,
		Description:  description,
	})
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Challenge created", "challenge_id", id.String())

	challengerName := h.members.Name(ctx, inv.ActorID)
	challengedName := h.members.Name(ctx, challenged)

	created := render.Info("🎯 Desafio Criado!", fmt.Sprintf("Você desafiou %s!", challengedName))
	if description != "" {
		created = created.WithField("Descrição", description, false)
	}
	created = created.WithField("ID do Desafio", id.String(), false).
		WithFooter("Aguardando resposta do oponente...")

	prompt := render.Warning("🎯 Você Foi Desafiado!",
		fmt.Sprintf("%s, %s desafiou você!\nConfirme para aceitar ou cancele para recusar.", challengedName, challengerName))
	if description != "" {
		prompt = prompt.WithField("Descrição", description, false)
	}
	args := map[string]string{argID: id.String(), argChallenger: inv.ActorID, argDescription: description}
	resp, err := h.sessions.Confirm(challenged, prompt,
		dialog.Continuation{Name: contAccept, Args: args},
		dialog.Continuation{Name: contReject, Args: args},
	)
	if err != nil {
		return err
	}
	resp.Messages = []render.Message{created}
	return inv.Reply(ctx, resp.As(senderName))
}

func (h *Handler) onAccepted(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	if err := h.challenges.Accept(ctx, backend.ID(res.Args[argID])); err != nil {
		return dialog.Reply{}, err
	}
	msg := render.Success("✅ Desafio Aceito!",
		fmt.Sprintf("%s aceitou o desafio de %s!", h.members.Name(ctx, res.OwnerID), h.members.Name(ctx, res.Args[argChallenger])))
	if d := res.Args[argDescription]; d != "" {
		msg = msg.WithField("Descrição", d, false)
	}
	msg = msg.WithField("Placar", "0 - 0", false).WithFooter("ID: " + res.Args[argID])
	return dialog.Reply{Messages: []render.Message{msg}, Persona: senderName}, nil
}

func (h *Handler) onRejected(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	if err := h.challenges.Reject(ctx, backend.ID(res.Args[argID])); err != nil {
		return dialog.Reply{}, err
	}
	msg := render.Error("❌ Desafio Recusado",
		fmt.Sprintf("%s recusou o desafio de %s.", h.members.Name(ctx, res.OwnerID), h.members.Name(ctx, res.Args[argChallenger])))
	return dialog.Reply{Messages: []render.Message{msg}, Persona: senderName}, nil
}

// active returns the actor's open challenges, failing with a user-facing
// error when there are none.
func (h *Handler) active(ctx context.Context, userID string) ([]backend.Challenge, error) {
	list, err := h.challenges.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domerrors.NewValidationError("desafio", "Você não tem desafios ativos.")
	}
	return list, nil
}

func (h *Handler) handlePoint(ctx context.Context, inv *bot.Invocation) error {
	scorer, _ := inv.Args.User("usuario")
	list, err := h.active(ctx, inv.ActorID)
	if err != nil {
		return err
	}

	var match *backend.Challenge
	for i := range list {
		if list[i].Involves(scorer) {
			match = &list[i]
			break
		}
	}
	if match == nil {
		return domerrors.NewValidationError("usuario",
			fmt.Sprintf("Você não tem um desafio ativo com %s.", h.members.Name(ctx, scorer)))
	}

	updated, err := h.challenges.Increment(ctx, match.ID, scorer)
	if err != nil {
		return err
	}
	msg := render.Success("🎯 Ponto Adicionado!", fmt.Sprintf("Ponto para %s!", h.members.Name(ctx, scorer))).
		WithField("Placar Atual", h.scoreLine(ctx, updated), false)
	if updated.Description != "" {
		msg = msg.WithField("Desafio", updated.Description, false)
	}
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) handleClose(ctx context.Context, inv *bot.Invocation) error {
	list, err := h.challenges.Active(ctx, inv.ActorID)
	if err != nil {
		return err
	}
	switch len(list) {
	case 0:
		msg := render.Info("ℹ️ Sem Desafios", "Você não tem desafios ativos para fechar.")
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	case 1:
		msg, err := h.close(ctx, list[0].ID)
		if err != nil {
			return err
		}
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	}

	if len(list) > dialog.MaxOptions {
		list = list[:dialog.MaxOptions]
	}
	options := make([]dialog.Option, len(list))
	for i, c := range list {
		options[i] = dialog.Option{
			Label:       "vs " + h.members.Name(ctx, c.Opponent(inv.ActorID)),
			Value:       c.ID.String(),
			Description: fmt.Sprintf("Placar: %d - %d", c.ChallengerScore, c.ChallengedScore),
		}
	}
	prompt := render.Info("🎯 Seus Desafios Ativos", "Escolha o desafio que deseja encerrar.")
	resp, err := h.sessions.Select(inv.ActorID, prompt, options, dialog.Continuation{Name: contClose})
	if err != nil {
		return err
	}
	return inv.Reply(ctx, resp.As(senderName))
}

func (h *Handler) onCloseSelected(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	msg, err := h.close(ctx, backend.ID(res.Value()))
	if err != nil {
		return dialog.Reply{}, err
	}
	return dialog.Reply{Messages: []render.Message{msg}, Persona: senderName}, nil
}

func (h *Handler) close(ctx context.Context, id backend.ID) (render.Message, error) {
	closed, err := h.challenges.Close(ctx, id)
	if err != nil {
		return render.Message{}, err
	}
	h.logger.InfoContext(ctx, "Challenge closed", "challenge_id", id.String())

	winner := "Empate!"
	if leader := closed.Leader(); leader != "" {
		winner = h.members.Name(ctx, leader)
	}
	msg := render.Success("🏁 Desafio Encerrado!", "Vencedor: "+winner).
		WithField("Placar Final", h.scoreLine(ctx, closed), false)
	if closed.Description != "" {
		msg = msg.WithField("Desafio", closed.Description, false)
	}
	msg.Color = colorGold
	return msg, nil
}

func (h *Handler) handleShow(ctx context.Context, inv *bot.Invocation) error {
	list, err := h.challenges.Active(ctx, inv.ActorID)
	if err != nil {
		return err
	}
	pages := pagination.Build(list, 1, func(items []backend.Challenge, _ pagination.PageInfo) render.Message {
		if len(items) == 0 {
			return render.Info("ℹ️ Sem Desafios", "Você não tem desafios ativos.")
		}
		c := items[0]
		msg := render.Info("🎯 Detalhes do Desafio",
			fmt.Sprintf("%s vs %s", h.members.Name(ctx, c.ChallengerID), h.members.Name(ctx, c.ChallengedID))).
			WithField("Placar", h.scoreLine(ctx, c), false)
		if c.Description != "" {
			msg = msg.WithField("Descrição", c.Description, false)
		}
		return msg.WithField("ID", c.ID.String(), true).
			WithField("Status", statusLabel(c.Status), true)
	})
	return inv.Reply(ctx, h.sessions.Paginate(inv.ActorID, pages).As(senderName))
}

func (h *Handler) scoreLine(ctx context.Context, c backend.Challenge) string {
	return fmt.Sprintf("%s: %d - %s: %d",
		h.members.Name(ctx, c.ChallengerID), c.ChallengerScore,
		h.members.Name(ctx, c.ChallengedID), c.ChallengedScore)
}

func statusLabel(status string) string {
	switch status {
	case "PENDING":
		return "⏳ Pendente"
	case "ACTIVE":
		return "🔥 Em andamento"
	case "COMPLETED":
		return "🏁 Encerrado"
	case "REJECTED":
		return "❌ Recusado"
	case "":
		return "-"
	default:
		return status
	}
}
