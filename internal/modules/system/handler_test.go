package system

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/data"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/moduletest"
)

var ana = moduletest.UserID('a')

type fakeHealth []backend.ServiceHealth

func (f fakeHealth) Check(context.Context) []backend.ServiceHealth { return f }

func setup(t *testing.T, health Health) *moduletest.Harness {
	t.Helper()
	h := moduletest.New(t, nil)
	h.Router.RegisterModule(NewHandler(data.Commands(), health, h.Config.SourceCodeURL, h.Sessions, h.Logger))
	return h
}

func TestHelp(t *testing.T) {
	h := setup(t, fakeHealth{})
	catalog := data.Commands()

	resp := h.Send(ana, "ajuda")
	require.NotNil(t, resp.Page)
	assert.Equal(t, len(catalog.Sections), resp.Page.Total)
	assert.True(t, strings.HasPrefix(resp.Page.Page.Body, catalog.Sections[0].Title))
	assert.Contains(t, resp.Page.Page.Body, "/registrar <nome> [bio]")
	assert.Empty(t, resp.Page.Page.Fields)

	alias := h.Send(ana, "HELP")
	require.NotNil(t, alias.Page)
}

func TestHelp_TipsOnLastPage(t *testing.T) {
	catalog := data.Catalog{
		Sections: []data.Section{{Title: "A", Commands: []data.CommandInfo{{Usage: "/criar_evento", Description: "d", Admin: true}}}},
		Tips:     []string{"um", "dois"},
	}
	h := moduletest.New(t, nil)
	h.Router.RegisterModule(NewHandler(catalog, fakeHealth{}, "", h.Sessions, h.Logger))

	page := h.Send(ana, "ajuda").Page.Page
	assert.Contains(t, page.Body, "/criar_evento 🔒")
	require.Len(t, page.Fields, 1)
	assert.Equal(t, "• um\n• dois", page.Fields[0].Value)
}

func TestHealth(t *testing.T) {
	h := setup(t, fakeHealth{
		{Name: "balance", State: backend.StateOnline, Status: 200, Latency: 12 * time.Millisecond},
		{Name: "bet", State: backend.StateDegraded, Status: 503, Latency: 40 * time.Millisecond},
		{Name: "ai", State: backend.StateOffline},
	})

	msg := moduletest.First(t, h.Send(ana, "health_check"))
	assert.Equal(t, "1 de 3 serviços online", msg.Body)
	require.Len(t, msg.Fields, 4)
	assert.Equal(t, "Balance API", msg.Fields[0].Name)
	assert.Equal(t, "🟢 Online · 12ms", msg.Fields[0].Value)
	assert.Equal(t, "🟡 Status 503 · 40ms", msg.Fields[1].Value)
	assert.Equal(t, "🔴 Offline", msg.Fields[2].Value)
}

func TestHealth_RealChecker(t *testing.T) {
	h := moduletest.New(t, nil)
	h.Mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h.Router.RegisterModule(NewHandler(data.Commands(), h.Clients.Health, "", h.Sessions, h.Logger))

	msg := moduletest.First(t, h.Send(ana, "health_check"))
	assert.Equal(t, "7 de 7 serviços online", msg.Body)
}

func TestSource(t *testing.T) {
	h := setup(t, fakeHealth{})

	msg := moduletest.First(t, h.Send(ana, "codigo_fonte"))
	assert.Equal(t, "https://github.com/butecodosdevs/modular-buteco-bot", msg.Fields[0].Value)
}

func TestWelcome(t *testing.T) {
	msgs := Welcome()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Fields[0].Value, "/registrar")
}
