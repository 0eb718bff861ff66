// Package bet implements betting events: creation, wagers and settlement.
package bet

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Module constants
const (
	ModuleName = "bet"
	senderName = "Bookmaker do Buteco"
)

// Postback actions.
const (
	actionPick = "pick"
	actionInfo = "info"
)

// Dialog continuations.
const (
	contPlace = "bet.place"
	contShow  = "bet.show"
	contAdmin = "bet.admin"
)

// Admin choices of evento_admin.
const (
	adminWin1   = "1"
	adminWin2   = "2"
	adminCancel = "cancel"
)

// createArg is the single text argument of criar_evento; its name doubles
// as the usage hint.
const createArg = "título | opção1 | opção2 [| descrição]"

// quickAmounts are the wager sizes offered after picking an option.
var quickAmounts = []int64{10, 50, 100, 500}

// eventIDPattern keeps user-typed ids safe to embed in postback data.
var eventIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Handler handles bet commands and the buttons of event cards.
type Handler struct {
	members  *member.Directory
	bets     *backend.BetClient
	admins   bot.AdminChecker
	sessions bot.Sessions
	logger   *logger.Logger
}

// NewHandler creates a bet handler.
func NewHandler(members *member.Directory, bets *backend.BetClient, admins bot.AdminChecker, sessions bot.Sessions, log *logger.Logger) *Handler {
	return &Handler{
		members:  members,
		bets:     bets,
		admins:   admins,
		sessions: sessions,
		logger:   log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the bet commands and dialog continuations.
func (h *Handler) Register(r *bot.Router) {
	r.Register("criar_evento", bot.ArgSpec{{Name: createArg, Kind: bot.ArgText}}, h.handleCreate)
	r.Register("apostar", bot.ArgSpec{
		{Name: "evento", Kind: bot.ArgString},
		{Name: "opção", Kind: bot.ArgNumber, Optional: true},
		{Name: "valor", Kind: bot.ArgNumber, Optional: true},
	}, h.handleBet)
	r.Register("eventos_listar", nil, h.handleList, "eventos")
	r.Register("evento_admin", bot.ArgSpec{{Name: "evento", Kind: bot.ArgString}}, h.handleAdmin)

	h.sessions.Dialogs.Handle(contPlace, h.onAmountChosen)
	h.sessions.Dialogs.Handle(contShow, h.onEventChosen)
	h.sessions.Dialogs.Handle(contAdmin, h.onAdminChosen)
}

// HandlePostback handles the buttons of event cards. Anyone in the chat
// may press them; the follow-up dialog belongs to whoever pressed.
func (h *Handler) HandlePostback(ctx context.Context, inv *bot.Invocation, pb bot.PostbackData) error {
	id := pb.Param(0)
	if !eventIDPattern.MatchString(id) {
		return domerrors.ErrNotFound
	}
	switch pb.ModAction {
	case actionPick:
		option, err := strconv.Atoi(pb.Param(1))
		if err != nil || (option != 1 && option != 2) {
			return domerrors.ErrNotFound
		}
		return h.askAmount(ctx, inv, id, option)
	case actionInfo:
		ev, err := h.event(ctx, id)
		if err != nil {
			return err
		}
		return inv.Reply(ctx, bot.Reply(details(ev)).As(senderName))
	default:
		return domerrors.ErrNotFound
	}
}

func (h *Handler) handleCreate(ctx context.Context, inv *bot.Invocation) error {
	if !h.admins.IsAdmin(ctx, inv.ActorID) {
		return inv.Reply(ctx, bot.Reply(denied("Apenas administradores podem criar eventos de aposta.")).As(senderName))
	}

	parts := strings.Split(inv.Args.String(createArg), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || len(parts) > 4 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return domerrors.NewValidationError("evento", "Use: /criar_evento título | opção 1 | opção 2 [| descrição]")
	}
	ev := backend.NewEvent{Title: parts[0], Option1: parts[1], Option2: parts[2]}
	if len(parts) == 4 {
		ev.Description = parts[3]
	}

	id, err := h.bets.CreateEvent(ctx, ev)
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Bet event created", "event_id", id)

	card := eventCard(backend.Event{ID: id, Title: ev.Title, Description: ev.Description, Option1: ev.Option1, Option2: ev.Option2})
	card.Title = "🎰 Evento de Aposta Criado com Sucesso!"
	card.Body = ev.Title
	if ev.Description != "" {
		card.Body += "\n" + ev.Description
	}
	card.Status = render.StatusSuccess
	card.Footer = "Criado por " + h.members.Name(ctx, inv.ActorID)
	return inv.Reply(ctx, bot.Reply(card).As(senderName))
}

func (h *Handler) handleBet(ctx context.Context, inv *bot.Invocation) error {
	id := inv.Args.String("evento")
	if !eventIDPattern.MatchString(id) {
		return domerrors.NewValidationError("evento", "ID de evento inválido.")
	}

	if !inv.Args.Has("opção") {
		ev, err := h.event(ctx, id)
		if err != nil {
			return err
		}
		return inv.Reply(ctx, bot.Reply(eventCard(ev)).As(senderName))
	}

	option, ok := inv.Args.Int("opção")
	if !ok || (option != 1 && option != 2) {
		return domerrors.NewValidationError("opção", "A opção deve ser 1 ou 2.")
	}
	if !inv.Args.Has("valor") {
		return domerrors.NewValidationError("valor", "Informe o valor da aposta.")
	}
	amount, ok := inv.Args.Int("valor")
	if !ok || amount <= 0 {
		return domerrors.NewValidationError("valor", "O valor deve ser um número inteiro positivo.")
	}

	msg, err := h.place(ctx, inv.ActorID, id, int(option), amount)
	if err != nil {
		return err
	}
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) askAmount(ctx context.Context, inv *bot.Invocation, id string, option int) error {
	ev, err := h.event(ctx, id)
	if err != nil {
		return err
	}
	options := make([]dialog.Option, len(quickAmounts))
	for i, a := range quickAmounts {
		options[i] = dialog.Option{Label: "🪙 " + render.Coins(a), Value: strconv.FormatInt(a, 10)}
	}
	prompt := render.Info("🎰 "+ev.Title, fmt.Sprintf("Quanto deseja apostar em %s?", ev.Option(option)))
	resp, err := h.sessions.Select(inv.ActorID, prompt, options, dialog.Continuation{
		Name: contPlace,
		Args: map[string]string{"event": id, "option": strconv.Itoa(option)},
	})
	if err != nil {
		return err
	}
	return inv.Reply(ctx, resp.As(senderName))
}

func (h *Handler) onAmountChosen(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	amount, err := strconv.ParseInt(res.Value(), 10, 64)
	if err != nil {
		return dialog.Reply{}, fmt.Errorf("bad quick amount %q: %w", res.Value(), err)
	}
	option, _ := strconv.Atoi(res.Args["option"])
	msg, err := h.place(ctx, res.OwnerID, res.Args["event"], option, amount)
	if err != nil {
		return dialog.Reply{}, err
	}
	return dialog.Reply{Messages: []render.Message{msg}, Persona: senderName}, nil
}

func (h *Handler) place(ctx context.Context, userID, eventID string, option int, amount int64) (render.Message, error) {
	user, err := h.members.Ensure(ctx, userID)
	if err != nil {
		return render.Message{}, err
	}
	err = h.bets.Place(ctx, backend.Bet{
		UserID:       user.ID,
		EventID:      backend.ID(eventID),
		ChosenOption: option,
		Amount:       amount,
	})
	if err != nil {
		return render.Message{}, err
	}
	h.logger.InfoContext(ctx, "Bet placed", "event_id", eventID, "option", option, "amount", amount)
	return render.Success("✅ Aposta Realizada com Sucesso!",
		fmt.Sprintf("Você apostou %s na opção %d.", render.Coins(amount), option)), nil
}

func (h *Handler) handleList(ctx context.Context, inv *bot.Invocation) error {
	events, err := h.bets.Events(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return inv.Reply(ctx, bot.Reply(render.Info("🎰 Eventos Ativos", "Nenhum evento ativo no momento.")).As(senderName))
	}

	options := make([]dialog.Option, 0, min(len(events), dialog.MaxOptions))
	for _, ev := range events[:min(len(events), dialog.MaxOptions)] {
		options = append(options, dialog.Option{
			Label:       "🎰 " + ev.Title,
			Value:       ev.ID.String(),
			Description: "Pool: " + render.Coins(ev.TotalBetAmount),
		})
	}
	prompt := render.Info("🎰 Eventos Ativos", fmt.Sprintf("Encontrados %d eventos ativos. Selecione um abaixo:", len(events)))
	resp, err := h.sessions.Select(inv.ActorID, prompt, options, dialog.Continuation{Name: contShow})
	if err != nil {
		return err
	}
	return inv.Reply(ctx, resp.As(senderName))
}

func (h *Handler) onEventChosen(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	ev, err := h.event(ctx, res.Value())
	if err != nil {
		return dialog.Reply{}, err
	}
	return dialog.Reply{Messages: []render.Message{eventCard(ev)}, Persona: senderName}, nil
}

func (h *Handler) handleAdmin(ctx context.Context, inv *bot.Invocation) error {
	if !h.admins.IsAdmin(ctx, inv.ActorID) {
		return inv.Reply(ctx, bot.Reply(denied("Apenas administradores podem gerenciar eventos.")).As(senderName))
	}
	id := inv.Args.String("evento")
	if !eventIDPattern.MatchString(id) {
		return domerrors.NewValidationError("evento", "ID de evento inválido.")
	}
	ev, err := h.event(ctx, id)
	if err != nil {
		return err
	}

	prompt := render.Info("⚙️ Gerenciar: "+ev.Title, ev.Description).
		WithField("ID", ev.ID.String(), true).
		WithField("Pool Total", render.Coins(ev.TotalBetAmount), true).
		WithField("🅰️ Opção 1", ev.Option1, true).
		WithField("🅱️ Opção 2", ev.Option2, true)
	prompt.Color = "#F1C40F"
	options := []dialog.Option{
		{Label: "🏁 Vitória: " + ev.Option1, Value: adminWin1},
		{Label: "🏁 Vitória: " + ev.Option2, Value: adminWin2},
		{Label: "❌ Cancelar evento", Value: adminCancel},
	}
	resp, err := h.sessions.Select(inv.ActorID, prompt, options, dialog.Continuation{
		Name: contAdmin,
		Args: map[string]string{"event": id},
	})
	if err != nil {
		return err
	}
	return inv.Reply(ctx, resp.As(senderName))
}

func (h *Handler) onAdminChosen(ctx context.Context, res dialog.Result) (dialog.Reply, error) {
	id := backend.ID(res.Args["event"])
	var msg render.Message

	switch res.Value() {
	case adminWin1, adminWin2:
		option, _ := strconv.Atoi(res.Value())
		if err := h.bets.Finalize(ctx, id, option); err != nil {
			return dialog.Reply{}, err
		}
		msg = render.Success("🏁 Evento Finalizado!", fmt.Sprintf("Opção %d foi declarada vencedora!", option))
	case adminCancel:
		if err := h.bets.Cancel(ctx, id); err != nil {
			return dialog.Reply{}, err
		}
		msg = render.Warning("❌ Evento Cancelado", "O evento foi cancelado e todos foram reembolsados.")
	default:
		return dialog.Reply{}, fmt.Errorf("unknown admin choice %q", res.Value())
	}
	h.logger.InfoContext(ctx, "Bet event settled", "event_id", id, "choice", res.Value())
	return dialog.Reply{Messages: []render.Message{msg}, Persona: senderName}, nil
}

// event fetches an event, turning a 404 into a readable message.
func (h *Handler) event(ctx context.Context, id string) (backend.Event, error) {
	ev, err := h.bets.Event(ctx, backend.ID(id))
	if be, ok := domerrors.AsBackendError(err); ok && be.Status == http.StatusNotFound {
		return backend.Event{}, domerrors.NewValidationError("evento",
			fmt.Sprintf("Não foi possível encontrar o evento com ID %s.", id))
	}
	return ev, err
}

// eventCard shows an event with buttons to bet on either option.
func eventCard(ev backend.Event) render.Message {
	id := ev.ID.String()
	return render.Info("🎰 "+ev.Title, ev.Description).
		WithField("🅰️ Opção 1", ev.Option1, true).
		WithField("🅱️ Opção 2", ev.Option2, true).
		WithField("Pool Total", render.Coins(ev.TotalBetAmount), true).
		WithField("ID", id, true).
		WithButton("🅰️ Apostar: "+ev.Option1, bot.ModulePostback(ModuleName, actionPick, id, "1")).
		WithButton("🅱️ Apostar: "+ev.Option2, bot.ModulePostback(ModuleName, actionPick, id, "2")).
		WithButton("ℹ️ Ver Detalhes", bot.ModulePostback(ModuleName, actionInfo, id))
}

// details breaks the pool down per option.
func details(ev backend.Event) render.Message {
	share := func(amount int64) string {
		if ev.TotalBetAmount <= 0 {
			return "0,0%"
		}
		return render.Decimal(float64(amount)/float64(ev.TotalBetAmount)*100) + "%"
	}
	odds := func(n int) string {
		if o := ev.Odds(n); o > 0 {
			return " · x" + render.Decimal(o)
		}
		return ""
	}
	return render.Info("🎰 "+ev.Title, ev.Description).
		WithField("ID", ev.ID.String(), true).
		WithField("Pool Total", render.Coins(ev.TotalBetAmount), true).
		WithField("🅰️ "+ev.Option1, fmt.Sprintf("%s (%s)%s", render.Coins(ev.Option1BetAmount), share(ev.Option1BetAmount), odds(1)), false).
		WithField("🅱️ "+ev.Option2, fmt.Sprintf("%s (%s)%s", render.Coins(ev.Option2BetAmount), share(ev.Option2BetAmount), odds(2)), false)
}

func denied(body string) render.Message {
	return render.Error("❌ Permissão Negada", body)
}
