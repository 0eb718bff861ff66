// Package economy implements the coin commands: transfers, statement,
// leaderboard and daily coins.
package economy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/sliceutil"
)

// Module constants
const (
	ModuleName = "economy"
	senderName = "Banqueiro do Buteco"
)

// Page sizes and limits.
const (
	leaderboardPageSize = 10
	statementPageSize   = 9
	claimsPageSize      = 10

	walletHistoryLimit = 30
	claimHistoryLimit  = 50

	// balanceFetchConcurrency bounds the leaderboard fan-out.
	balanceFetchConcurrency = 8
)

const colorGold = "#F1C40F"

var medals = []string{"🥇", "🥈", "🥉"}

// Handler handles economy commands.
type Handler struct {
	members  *member.Directory
	balance  *backend.BalanceClient
	coins    *backend.CoinClient
	sessions bot.Sessions
	logger   *logger.Logger
}

// NewHandler creates an economy handler.
func NewHandler(members *member.Directory, balance *backend.BalanceClient, coins *backend.CoinClient, sessions bot.Sessions, log *logger.Logger) *Handler {
	return &Handler{
		members:  members,
		balance:  balance,
		coins:    coins,
		sessions: sessions,
		logger:   log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the economy commands.
func (h *Handler) Register(r *bot.Router) {
	r.Register("fazer_transferencia", bot.ArgSpec{
		{Name: "usuario", Kind: bot.ArgUser},
		{Name: "valor", Kind: bot.ArgNumber},
		{Name: "descrição", Kind: bot.ArgText, Optional: true},
	}, h.handleTransfer, "transferir")
	r.Register("faria_limers", nil, h.handleLeaderboard, "ranking")
	r.Register("extrato", nil, h.handleStatement)
	r.Register("coins", nil, h.handleClaim)
	r.Register("ver_coins", bot.ArgSpec{{Name: "usuario", Kind: bot.ArgUser, Optional: true}}, h.handleWallet, "saldo")
	r.Register("historico_de_coins", nil, h.handleClaimHistory)
}

func (h *Handler) handleTransfer(ctx context.Context, inv *bot.Invocation) error {
	targetID, _ := inv.Args.User("usuario")
	if targetID == inv.ActorID {
		return domerrors.NewValidationError("usuario", "Você não pode transferir moedas para si mesmo!")
	}
	amount, ok := inv.Args.Int("valor")
	if !ok || amount <= 0 {
		return domerrors.NewValidationError("valor", "O valor deve ser um número inteiro positivo.")
	}
	description := inv.Args.String("descrição")
	if description == "" {
		description = "Transferência via LINE"
	}

	var sender, receiver backend.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sender, err = h.members.Ensure(gctx, inv.ActorID)
		return err
	})
	g.Go(func() (err error) {
		receiver, err = h.members.Ensure(gctx, targetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	current, err := h.balance.Balance(ctx, sender.ID)
	if err != nil {
		return err
	}
	if current < amount {
		msg := render.Error("❌ Saldo Insuficiente",
			fmt.Sprintf("Você tem %s, mas precisa de %s.", render.Coins(current), render.Coins(amount)))
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	}

	err = h.balance.Transfer(ctx, backend.Transfer{
		SenderID:    sender.ID,
		ReceiverID:  receiver.ID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Transfer completed", "amount", amount)

	msg := render.Success("✅ Transferência Realizada!",
		fmt.Sprintf("Você transferiu %s para %s.", render.Coins(amount), receiver.Name)).
		WithField("💬 Descrição", description, false).
		WithField("💰 Saldo Anterior", render.Coins(current), true).
		WithField("💵 Saldo Atual", render.Coins(current-amount), true)
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

type ranked struct {
	user    backend.User
	balance int64
}

func (h *Handler) handleLeaderboard(ctx context.Context, inv *bot.Invocation) error {
	users, err := h.members.Users().List(ctx)
	if err != nil {
		return err
	}
	users = sliceutil.Deduplicate(users, func(u backend.User) backend.ID { return u.ID })
	board := h.rank(ctx, users)

	pages := pagination.Build(board, leaderboardPageSize, func(items []ranked, p pagination.PageInfo) render.Message {
		msg := render.Info("🏆 Ranking - Melhores Usuários", fmt.Sprintf("Top %d usuários mais ricos do buteco", len(board)))
		msg.Color = colorGold
		if len(items) == 0 {
			msg.Body = "Nenhum usuário encontrado no ranking."
			return msg
		}
		for i, r := range items {
			rank := p.Offset + i + 1
			label := fmt.Sprintf("%d.", rank)
			if rank <= len(medals) {
				label = medals[rank-1]
			}
			msg = msg.WithField(label+" "+r.user.Name, "💰 "+render.Coins(r.balance), true)
		}
		return msg
	})
	return inv.Reply(ctx, h.sessions.Paginate(inv.ActorID, pages).As(senderName))
}

// rank fetches every balance concurrently and sorts descending. Users
// whose balance cannot be read are left out.
func (h *Handler) rank(ctx context.Context, users []backend.User) []ranked {
	balances := make([]int64, len(users))
	found := make([]bool, len(users))

	var g errgroup.Group
	g.SetLimit(balanceFetchConcurrency)
	for i, u := range users {
		g.Go(func() error {
			b, err := h.balance.Balance(ctx, u.ID)
			if err != nil {
				h.logger.WithError(err).DebugContext(ctx, "Skipping user without balance", "client_id", u.ID)
				return nil
			}
			balances[i], found[i] = b, true
			return nil
		})
	}
	_ = g.Wait()

	board := make([]ranked, 0, len(users))
	for i, u := range users {
		if found[i] {
			board = append(board, ranked{user: u, balance: balances[i]})
		}
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].balance > board[j].balance
	})
	return board
}

func (h *Handler) handleStatement(ctx context.Context, inv *bot.Invocation) error {
	user, err := h.members.Ensure(ctx, inv.ActorID)
	if err != nil {
		return err
	}
	ops, err := h.balance.Operations(ctx, user.ID)
	if err != nil {
		return err
	}
	income, expense := backend.Totals(ops)
	summary := fmt.Sprintf("📈 Total Recebido: %s\n📉 Total Gasto: %s", render.Coins(income), render.Coins(expense))

	pages := pagination.Build(ops, statementPageSize, func(items []backend.Operation, _ pagination.PageInfo) render.Message {
		if len(items) == 0 {
			return render.Info("📊 Histórico de Transações", "Nenhuma transação encontrada.")
		}
		msg := render.Info("📊 Histórico de Transações", summary)
		for _, op := range items {
			msg = msg.WithField(operationLabel(op), describe(op.Description)+"\n"+render.DateTime(op.CreatedAt), true)
		}
		return msg
	})
	return inv.Reply(ctx, h.sessions.Paginate(inv.ActorID, pages).As(senderName))
}

func operationLabel(op backend.Operation) string {
	if op.Amount > 0 {
		return "🟢 +" + render.Coins(op.Amount)
	}
	return "🔴 " + render.Coins(op.Amount)
}

func describe(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Sem descrição"
	}
	return s
}

func (h *Handler) handleClaim(ctx context.Context, inv *bot.Invocation) error {
	user, err := h.members.Ensure(ctx, inv.ActorID)
	if err != nil {
		return err
	}
	claim, err := h.coins.Claim(ctx, user.ID)
	if err != nil {
		return err
	}
	if claim.AlreadyClaimed {
		msg := render.Warning("⏰ Já Coletado Hoje", "Você já coletou suas moedas diárias hoje!\n\nVolte amanhã para coletar novamente! ⏰")
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	}

	msg := render.Success("🎉 Moedas Diárias Coletadas!", fmt.Sprintf("Você recebeu %s! 🪙", render.Coins(claim.Amount)))
	msg.Color = colorGold
	if current, err := h.balance.Balance(ctx, user.ID); err == nil {
		msg = msg.WithField("💰 Saldo Atual", render.Coins(current), true)
	} else {
		h.logger.WithError(err).WarnContext(ctx, "Balance unavailable after claim")
	}
	msg = msg.WithField("⏰ Próxima Coleta", "Volte amanhã!", true).
		WithFooter("Continue coletando diariamente para acumular moedas!")
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) handleWallet(ctx context.Context, inv *bot.Invocation) error {
	targetID := inv.ActorID
	if id, _ := inv.Args.User("usuario"); id != "" {
		targetID = id
	}
	user, err := h.members.Ensure(ctx, targetID)
	if err != nil {
		return err
	}
	current, err := h.balance.Balance(ctx, user.ID)
	if err != nil {
		return err
	}

	msg := render.Info("💰 Carteira de "+user.Name, "Informações financeiras completas").
		WithField("💵 Saldo Atual", render.Coins(current)+" 🪙", false)

	history, err := h.coins.History(ctx, user.ID, walletHistoryLimit)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Coin history unavailable")
	} else if history.TotalClaims > 0 {
		avg := history.TotalCoinsEarned / history.TotalClaims
		msg = msg.WithField("📅 Total de Coletas", fmt.Sprintf("%s dias", render.Number(history.TotalClaims)), true).
			WithField("🎁 Total Coletado", render.Coins(history.TotalCoinsEarned), true).
			WithField("📊 Média por Dia", render.Coins(avg), true)
	}
	msg = msg.WithFooter("Use /coins para coletar suas moedas diárias!")
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) handleClaimHistory(ctx context.Context, inv *bot.Invocation) error {
	user, err := h.members.Ensure(ctx, inv.ActorID)
	if err != nil {
		return err
	}
	history, err := h.coins.History(ctx, user.ID, claimHistoryLimit)
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Total de Coletas: %s | Total Ganho: %s",
		render.Number(history.TotalClaims), render.Coins(history.TotalCoinsEarned))
	pages := pagination.Build(history.History, claimsPageSize, func(items []backend.ClaimEntry, _ pagination.PageInfo) render.Message {
		if len(items) == 0 {
			return render.Info("📅 Histórico de Coletas Diárias", "Nenhuma coleta diária encontrada. Use /coins para começar a coletar!")
		}
		msg := render.Info("📅 Histórico de Coletas Diárias", summary)
		for _, c := range items {
			msg = msg.WithField("🗓️ "+claimDate(c.ClaimDate), "+"+render.Coins(c.Amount)+" 🪙", true)
		}
		return msg
	})
	return inv.Reply(ctx, h.sessions.Paginate(inv.ActorID, pages).As(senderName))
}

// claimDate formats a backend date, keeping the raw text when it does not
// parse. Dates without an offset are shown as sent.
func claimDate(raw string) string {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return render.Date(t)
	}
	for _, layout := range []string{"2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}
