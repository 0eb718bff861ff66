// Package moduletest runs bot modules against fake backends in tests.
package moduletest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
)

// Harness wires a router, the session engines and typed clients pointed
// at one fake server that serves every backend route.
type Harness struct {
	t *testing.T

	Mux       *http.ServeMux
	Config    *config.Config
	Logger    *logger.Logger
	Router    *bot.Router
	Sessions  bot.Sessions
	Clients   *backend.Clients
	Directory *member.Directory
	Processor *bot.Processor
}

var errNoProfile = errors.New("profile not found")

// Names is a fixed NameLookup.
type Names map[string]string

// DisplayName implements bot.NameLookup.
func (n Names) DisplayName(_ context.Context, userID string) (string, error) {
	if name, ok := n[userID]; ok {
		return name, nil
	}
	return "", errNoProfile
}

// New creates a harness. Routes are added to h.Mux by the test before
// sending commands.
func New(t *testing.T, names Names) *Harness {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Backends:      make(map[string]string, len(config.BackendNames)),
		AIUsageCost:   100,
		SourceCodeURL: "https://github.com/butecodosdevs/modular-buteco-bot",
		Bot: config.BotConfig{
			WebhookTimeout:  5 * time.Second,
			SessionTTL:      time.Minute,
			AIBurstTokens:   5,
			AIRefillPerHour: 5,
		},
	}
	for _, name := range config.BackendNames {
		cfg.Backends[name] = srv.URL
	}

	log := logger.NewWithWriter("error", io.Discard)
	reg := session.NewRegistry(session.Options{DefaultTTL: time.Minute})
	t.Cleanup(reg.Stop)

	clients := backend.New(apiclient.New(2*time.Second, nil), cfg, nil)
	router := bot.NewRouter(log, nil)
	sessions := bot.Sessions{
		Pages:   pagination.NewEngine(reg),
		Dialogs: dialog.NewEngine(reg),
		TTL:     time.Minute,
	}

	h := &Harness{
		t:         t,
		Mux:       mux,
		Config:    cfg,
		Logger:    log,
		Router:    router,
		Sessions:  sessions,
		Clients:   clients,
		Directory: member.NewDirectory(clients.Users, names, log),
	}
	h.Processor = bot.NewProcessor(bot.ProcessorConfig{
		Router:    router,
		Pages:     sessions.Pages,
		Dialogs:   sessions.Dialogs,
		Logger:    log,
		BotConfig: &cfg.Bot,
	})
	return h
}

type recorder struct {
	mu        sync.Mutex
	responses []bot.Response
}

func (r *recorder) Send(_ context.Context, resp bot.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
	return nil
}

func (r *recorder) single(t *testing.T) bot.Response {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.responses, 1, "exactly one response")
	return r.responses[0]
}

// Send delivers text from userID in a 1:1 chat and returns the answer.
func (h *Harness) Send(userID, text string) bot.Response {
	h.t.Helper()
	rec := &recorder{}
	h.Processor.ProcessMessage(context.Background(), webhook.MessageEvent{
		Source:  webhook.UserSource{UserId: userID},
		Message: webhook.TextMessageContent{Text: text},
	}, rec)
	return rec.single(h.t)
}

// Press delivers a postback from userID and returns the answer.
func (h *Harness) Press(userID, data string) bot.Response {
	h.t.Helper()
	rec := &recorder{}
	h.Processor.ProcessPostback(context.Background(), webhook.PostbackEvent{
		Source:   webhook.UserSource{UserId: userID},
		Postback: &webhook.PostbackContent{Data: data},
	}, rec)
	return rec.single(h.t)
}

// Confirm presses the confirm button of the dialog in r.
func (h *Harness) Confirm(userID string, r bot.Response) bot.Response {
	h.t.Helper()
	require.NotNil(h.t, r.Dialog, "response has no dialog")
	return h.Press(userID, bot.DialogPostback(r.Dialog.SessionID, dialog.ActionConfirm))
}

// Cancel presses the cancel button of the dialog in r.
func (h *Harness) Cancel(userID string, r bot.Response) bot.Response {
	h.t.Helper()
	require.NotNil(h.t, r.Dialog, "response has no dialog")
	return h.Press(userID, bot.DialogPostback(r.Dialog.SessionID, dialog.ActionCancel))
}

// Choose selects option idx of the selection dialog in r.
func (h *Harness) Choose(userID string, r bot.Response, idx int) bot.Response {
	h.t.Helper()
	require.NotNil(h.t, r.Dialog, "response has no dialog")
	return h.Press(userID, bot.SelectPostback(r.Dialog.SessionID, idx))
}

// Next moves the paginated view in r forward.
func (h *Harness) Next(userID string, r bot.Response) bot.Response {
	h.t.Helper()
	require.NotNil(h.t, r.Page, "response has no page")
	return h.Press(userID, bot.PagePostback(r.Page.SessionID, pagination.NavNext))
}

// First returns the first message of r, failing when there is none.
func First(t *testing.T, r bot.Response) render.Message {
	t.Helper()
	require.NotEmpty(t, r.Messages)
	return r.Messages[0]
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Body decodes a JSON request body.
func Body(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

// Users serves GET /client/ from a fixed list and accepts registrations.
func (h *Harness) Users(users ...backend.User) {
	var mu sync.Mutex
	list := append([]backend.User(nil), users...)
	h.Mux.HandleFunc("GET /client/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		JSON(w, http.StatusOK, list)
	})
	h.Mux.HandleFunc("POST /client/register", func(w http.ResponseWriter, r *http.Request) {
		body := Body(h.t, r)
		mu.Lock()
		defer mu.Unlock()
		for _, u := range list {
			if u.PlatformID == body["discordId"] {
				JSON(w, http.StatusBadRequest, map[string]string{"detail": "Usuário já registrado"})
				return
			}
		}
		id := backend.ID(strconv.Itoa(len(list) + 100))
		list = append(list, backend.User{ID: id, PlatformID: body["discordId"].(string), Name: body["username"].(string)})
		JSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
}

// UserID builds a LINE-shaped user ID from a single hex digit, so tests
// can type it as a mention.
func UserID(digit byte) string {
	b := make([]byte, 33)
	b[0] = 'U'
	for i := 1; i < len(b); i++ {
		b[i] = digit
	}
	return string(b)
}
