package ai

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/moduletest"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

var ana = moduletest.UserID('a')

type fakeLimiter struct {
	allow bool
	wait  time.Duration
	avail float64
}

func (f *fakeLimiter) Allow(string) bool               { return f.allow }
func (f *fakeLimiter) RetryAfter(string) time.Duration { return f.wait }
func (f *fakeLimiter) Available(string) float64        { return f.avail }

type fakeAI struct {
	mu        sync.Mutex
	balance   int64
	subtracts []map[string]any
	prompts   []map[string]any
	answer    string
	status    int
}

func setup(t *testing.T, limiter Limiter) (*moduletest.Harness, *fakeAI) {
	t.Helper()
	h := moduletest.New(t, nil)
	h.Users(backend.User{ID: "1", PlatformID: ana, Name: "Ana"})
	f := &fakeAI{answer: "42", status: http.StatusOK}
	h.Mux.HandleFunc("GET /balance/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		moduletest.JSON(w, http.StatusOK, map[string]any{"balance": f.balance})
	})
	h.Mux.HandleFunc("POST /balance/subtract", func(w http.ResponseWriter, r *http.Request) {
		body := moduletest.Body(t, r)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subtracts = append(f.subtracts, body)
		f.balance -= int64(body["amount"].(float64))
		w.WriteHeader(http.StatusOK)
	})
	h.Mux.HandleFunc("POST /GenAI/generate", func(w http.ResponseWriter, r *http.Request) {
		body := moduletest.Body(t, r)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.prompts = append(f.prompts, body)
		if f.status != http.StatusOK {
			moduletest.JSON(w, f.status, map[string]string{"detail": "modelo indisponível"})
			return
		}
		moduletest.JSON(w, http.StatusOK, map[string]string{"text": f.answer})
	})
	h.Router.RegisterModule(NewHandler(h.Directory, h.Clients.Balance, h.Clients.AI, limiter, int64(h.Config.AIUsageCost), h.Logger))
	return h, f
}

func TestParseQuestion(t *testing.T) {
	tests := []struct {
		name string
		text string
		want question
	}{
		{"plain", "qual o sentido da vida", question{Prompt: "qual o sentido da vida"}},
		{"provider", "provider=gemini oi", question{Prompt: "oi", Provider: "gemini"}},
		{"system word", "system=pirata conte uma piada", question{Prompt: "conte uma piada", System: "pirata"}},
		{"quoted system", `provider=openai system="fale como um pirata" oi`, question{Prompt: "oi", Provider: "openai", System: "fale como um pirata"}},
		{"options only", "provider=x", question{Provider: "x"}},
		{"option after prompt stays in prompt", "oi provider=x", question{Prompt: "oi provider=x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuestion(tt.text))
		})
	}
}

func TestAsk(t *testing.T) {
	h, f := setup(t, nil)
	f.balance = 250

	resp := h.Send(ana, `mestre_dos_magos provider=gemini system="seja breve" quanto é 6x7?`)
	assert.Equal(t, senderName, resp.Persona)
	msg := moduletest.First(t, resp)
	assert.Equal(t, "🤖 Resposta da IA", msg.Title)
	assert.Equal(t, "42", msg.Body)
	assert.Equal(t, "Custo: "+render.Coins(100)+" | Provider: gemini", msg.Footer)

	require.Len(t, f.subtracts, 1)
	assert.EqualValues(t, 100, f.subtracts[0]["amount"])
	assert.Equal(t, chargeDescription, f.subtracts[0]["description"])
	require.Len(t, f.prompts, 1)
	assert.Equal(t, "quanto é 6x7?", f.prompts[0]["prompt"])
	assert.Equal(t, "gemini", f.prompts[0]["provider"])
	assert.Equal(t, "seja breve", f.prompts[0]["systemPrompt"])
	assert.EqualValues(t, 150, f.balance)
}

func TestAsk_LongAnswerIsSplit(t *testing.T) {
	h, f := setup(t, nil)
	f.balance = 100
	f.answer = strings.Repeat("a", 9000)

	resp := h.Send(ana, "mestre_dos_magos escreva muito")
	require.Len(t, resp.Messages, 3)
	assert.Empty(t, resp.Messages[0].Fields)
	assert.Empty(t, resp.Messages[0].Footer)
	assert.Equal(t, "escreva muito", resp.Messages[2].Fields[0].Value)
	assert.Contains(t, resp.Messages[2].Footer, "Provider: padrão")
}

func TestAsk_InsufficientBalance(t *testing.T) {
	h, f := setup(t, nil)
	f.balance = 99

	msg := moduletest.First(t, h.Send(ana, "mestre_dos_magos oi"))
	assert.Equal(t, "❌ Saldo Insuficiente", msg.Title)
	assert.Contains(t, msg.Body, render.Coins(100))
	assert.Empty(t, f.subtracts)
	assert.Empty(t, f.prompts)
}

func TestAsk_GenerationFailureKeepsCharge(t *testing.T) {
	h, f := setup(t, nil)
	f.balance = 100
	f.status = http.StatusBadGateway

	msg := moduletest.First(t, h.Send(ana, "mestre_dos_magos oi"))
	assert.Equal(t, render.StatusError, msg.Status)
	assert.Equal(t, "A IA não conseguiu responder agora. O custo de "+render.Coins(100)+" não é devolvido.", msg.Body)
	assert.Len(t, f.subtracts, 1)
	assert.EqualValues(t, 0, f.balance)
}

func TestAsk_RateLimited(t *testing.T) {
	h, f := setup(t, &fakeLimiter{allow: false, wait: 90 * time.Second})
	f.balance = 1000

	msg := moduletest.First(t, h.Send(ana, "mestre_dos_magos oi"))
	assert.Equal(t, render.StatusWarning, msg.Status)
	assert.Contains(t, msg.Body, "2 minutos")
	assert.Empty(t, f.subtracts)
}

func TestAsk_MissingQuestion(t *testing.T) {
	h, f := setup(t, nil)
	f.balance = 1000

	msg := moduletest.First(t, h.Send(ana, "mestre_dos_magos provider=gemini"))
	assert.Equal(t, render.StatusError, msg.Status)
	assert.Empty(t, f.subtracts)
}

func TestUsage(t *testing.T) {
	h, _ := setup(t, &fakeLimiter{allow: true, avail: 0.4, wait: 30 * time.Second})

	msg := moduletest.First(t, h.Send(ana, "uso_ia"))
	require.Len(t, msg.Fields, 2)
	assert.Equal(t, "0", msg.Fields[1].Value)
	assert.Equal(t, "Próxima consulta em 30 segundos", msg.Footer)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "1 segundos", humanize(0))
	assert.Equal(t, "45 segundos", humanize(45*time.Second))
	assert.Equal(t, "12 minutos", humanize(11*time.Minute+time.Second))
}
