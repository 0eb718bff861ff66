package economy

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/moduletest"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

var (
	ana = moduletest.UserID('a')
	bia = moduletest.UserID('b')
)

type fakeBank struct {
	mu        sync.Mutex
	balances  map[string]int64
	transfers []map[string]any
}

func setup(t *testing.T, users ...backend.User) (*moduletest.Harness, *fakeBank) {
	t.Helper()
	h := moduletest.New(t, nil)
	h.Users(users...)
	bank := &fakeBank{balances: map[string]int64{}}
	h.Mux.HandleFunc("GET /balance/{id}", func(w http.ResponseWriter, r *http.Request) {
		bank.mu.Lock()
		defer bank.mu.Unlock()
		b, ok := bank.balances[r.PathValue("id")]
		if !ok {
			moduletest.JSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
			return
		}
		moduletest.JSON(w, http.StatusOK, map[string]any{"balance": b})
	})
	h.Mux.HandleFunc("POST /balance/transaction", func(w http.ResponseWriter, r *http.Request) {
		body := moduletest.Body(t, r)
		bank.mu.Lock()
		bank.transfers = append(bank.transfers, body)
		bank.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	h.Router.RegisterModule(NewHandler(h.Directory, h.Clients.Balance, h.Clients.Coins, h.Sessions, h.Logger))
	return h, bank
}

func TestTransfer(t *testing.T) {
	h, bank := setup(t,
		backend.User{ID: "1", PlatformID: ana, Name: "Ana"},
		backend.User{ID: "2", PlatformID: bia, Name: "Bia"},
	)
	bank.balances["1"] = 150

	t.Run("success", func(t *testing.T) {
		msg := moduletest.First(t, h.Send(ana, "fazer_transferencia "+bia+" 30 pix do bar"))
		assert.Equal(t, render.StatusSuccess, msg.Status, msg.Body)
		assert.Contains(t, msg.Body, "Bia")
		require.Len(t, bank.transfers, 1)
		tr := bank.transfers[0]
		assert.EqualValues(t, 1, tr["senderId"])
		assert.EqualValues(t, 2, tr["receiverId"])
		assert.EqualValues(t, 30, tr["amount"])
		assert.Equal(t, "pix do bar", tr["description"])
		assert.Equal(t, render.Coins(120), msg.Fields[2].Value)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		msg := moduletest.First(t, h.Send(ana, "fazer_transferencia "+bia+" 500"))
		assert.Equal(t, "❌ Saldo Insuficiente", msg.Title)
		assert.Len(t, bank.transfers, 1)
	})

	tests := []struct {
		name string
		text string
		want string
	}{
		{"self", "fazer_transferencia " + ana + " 10", "Você não pode transferir moedas para si mesmo!"},
		{"zero", "fazer_transferencia " + bia + " 0", "O valor deve ser um número inteiro positivo."},
		{"fraction", "fazer_transferencia " + bia + " 2,5", "O valor deve ser um número inteiro positivo."},
		{"negative", "fazer_transferencia " + bia + " -3", "O valor deve ser um número inteiro positivo."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := moduletest.First(t, h.Send(ana, tt.text))
			assert.Equal(t, render.StatusError, msg.Status)
			assert.Equal(t, tt.want, msg.Body)
			assert.Len(t, bank.transfers, 1, "rejected locally")
		})
	}
}

func TestLeaderboard(t *testing.T) {
	var users []backend.User
	for i := 1; i <= 12; i++ {
		users = append(users, backend.User{ID: backend.ID(strconv.Itoa(i)), PlatformID: fmt.Sprintf("U%d", i), Name: fmt.Sprintf("User %d", i)})
	}
	h, bank := setup(t, users...)
	for i := 1; i <= 11; i++ {
		bank.balances[strconv.Itoa(i)] = int64(i * 10)
	}
	// user 12 has no readable balance and is left out

	resp := h.Send(ana, "faria_limers")
	require.NotNil(t, resp.Page)
	assert.Equal(t, 2, resp.Page.Total)
	first := resp.Page.Page
	require.Len(t, first.Fields, 10)
	assert.Equal(t, "🥇 User 11", first.Fields[0].Name)
	assert.Equal(t, "🥈 User 10", first.Fields[1].Name)
	assert.Equal(t, "4. User 8", first.Fields[3].Name)
	assert.Contains(t, first.Body, "Top 11")

	next := h.Next(ana, resp)
	require.NotNil(t, next.Page)
	require.Len(t, next.Page.Page.Fields, 1)
	assert.Equal(t, "11. User 1", next.Page.Page.Fields[0].Name)
}

func TestLeaderboard_Empty(t *testing.T) {
	h, _ := setup(t)
	resp := h.Send(ana, "faria_limers")
	require.NotNil(t, resp.Page)
	assert.Equal(t, "Nenhum usuário encontrado no ranking.", resp.Page.Page.Body)
}

func TestStatement(t *testing.T) {
	h, _ := setup(t, backend.User{ID: "1", PlatformID: ana, Name: "Ana"})
	h.Mux.HandleFunc("GET /balance/operations/{id}", func(w http.ResponseWriter, r *http.Request) {
		var ops []map[string]any
		for i := range 10 {
			amount := 10
			if i%2 == 1 {
				amount = -5
			}
			ops = append(ops, map[string]any{
				"amount":      amount,
				"description": "",
				"createdAt":   fmt.Sprintf("2026-01-%02dT12:00:00Z", i+1),
			})
		}
		moduletest.JSON(w, http.StatusOK, ops)
	})

	resp := h.Send(ana, "extrato")
	require.NotNil(t, resp.Page)
	assert.Equal(t, 2, resp.Page.Total)
	page := resp.Page.Page
	assert.Contains(t, page.Body, render.Coins(50))
	assert.Contains(t, page.Body, render.Coins(25))
	require.Len(t, page.Fields, 9)
	// newest first: day 10 is an expense
	assert.Equal(t, "🔴 "+render.Coins(-5), page.Fields[0].Name)
	assert.Contains(t, page.Fields[0].Value, "Sem descrição")
	assert.Contains(t, page.Fields[0].Value, "10/01/2026")
}

func TestDailyCoins(t *testing.T) {
	h, bank := setup(t, backend.User{ID: "1", PlatformID: ana, Name: "Ana"})
	bank.balances["1"] = 75
	claimed := false
	h.Mux.HandleFunc("POST /daily-coins", func(w http.ResponseWriter, r *http.Request) {
		assert.EqualValues(t, 1, moduletest.Body(t, r)["clientId"])
		if claimed {
			moduletest.JSON(w, http.StatusBadRequest, map[string]string{"detail": "Já coletado"})
			return
		}
		claimed = true
		moduletest.JSON(w, http.StatusOK, map[string]any{"amount": 25})
	})

	msg := moduletest.First(t, h.Send(ana, "coins"))
	assert.Equal(t, render.StatusSuccess, msg.Status)
	assert.Contains(t, msg.Body, render.Coins(25))
	assert.Equal(t, render.Coins(75), msg.Fields[0].Value)

	again := moduletest.First(t, h.Send(ana, "coins"))
	assert.Equal(t, "⏰ Já Coletado Hoje", again.Title)
	assert.Equal(t, render.StatusWarning, again.Status)
}

func TestWallet(t *testing.T) {
	h, bank := setup(t,
		backend.User{ID: "1", PlatformID: ana, Name: "Ana"},
		backend.User{ID: "2", PlatformID: bia, Name: "Bia"},
	)
	bank.balances["2"] = 1234
	h.Mux.HandleFunc("GET /daily-coins/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.PathValue("id"))
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		moduletest.JSON(w, http.StatusOK, map[string]any{"totalClaims": 4, "totalCoinsEarned": 100, "history": []any{}})
	})

	msg := moduletest.First(t, h.Send(ana, "ver_coins "+bia))
	assert.Equal(t, "💰 Carteira de Bia", msg.Title)
	require.Len(t, msg.Fields, 4)
	assert.Equal(t, render.Coins(1234)+" 🪙", msg.Fields[0].Value)
	assert.Equal(t, render.Coins(25), msg.Fields[3].Value)
}

func TestClaimHistory(t *testing.T) {
	h, _ := setup(t, backend.User{ID: "1", PlatformID: ana, Name: "Ana"})
	h.Mux.HandleFunc("GET /daily-coins/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		var history []map[string]any
		for i := range 12 {
			history = append(history, map[string]any{"claimDate": fmt.Sprintf("2026-02-%02d", i+1), "amount": 20})
		}
		moduletest.JSON(w, http.StatusOK, map[string]any{"totalClaims": 12, "totalCoinsEarned": 240, "history": history})
	})

	resp := h.Send(ana, "historico_de_coins")
	require.NotNil(t, resp.Page)
	assert.Equal(t, 2, resp.Page.Total)
	assert.Equal(t, "🗓️ 01/02/2026", resp.Page.Page.Fields[0].Name)
}

func TestClaimDate(t *testing.T) {
	assert.Equal(t, "05/03/2026", claimDate("2026-03-05"))
	assert.Equal(t, "05/03/2026", claimDate("2026-03-05T10:00:00"))
	assert.Equal(t, "ontem", claimDate("ontem"))
}
