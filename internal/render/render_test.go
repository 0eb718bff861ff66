package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResult(t *testing.T) {
	tests := []struct {
		name          string
		res           apiclient.Result
		wantBody      string
		wantStatus    Status
		wantRetriable bool
	}{
		{
			name:       "success",
			res:        apiclient.Result{Kind: apiclient.KindSuccess, Status: 200},
			wantBody:   "feito",
			wantStatus: StatusSuccess,
		},
		{
			name:       "client error with detail is verbatim",
			res:        apiclient.Result{Kind: apiclient.KindClientError, Status: 400, Body: []byte(`{"detail":"Usuário já registrado"}`)},
			wantBody:   "Usuário já registrado",
			wantStatus: StatusError,
		},
		{
			name:       "client error without message",
			res:        apiclient.Result{Kind: apiclient.KindClientError, Status: 404, Body: []byte(`{}`)},
			wantBody:   MsgInvalidRequest,
			wantStatus: StatusError,
		},
		{
			name:          "server error hides backend text",
			res:           apiclient.Result{Kind: apiclient.KindServerError, Status: 500, Body: []byte(`{"detail":"stack trace"}`)},
			wantBody:      MsgUnavailable,
			wantStatus:    StatusError,
			wantRetriable: true,
		},
		{
			name:          "transport failure",
			res:           apiclient.Result{Kind: apiclient.KindServerError, Cause: errors.New("connection refused")},
			wantBody:      MsgUnavailable,
			wantStatus:    StatusError,
			wantRetriable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromResult(tt.res, Context{SuccessBody: "feito"})
			assert.Equal(t, tt.wantBody, m.Body)
			assert.Equal(t, tt.wantStatus, m.Status)
			assert.Equal(t, tt.wantRetriable, m.Retriable)
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantBody      string
		wantRetriable bool
	}{
		{"validation", domerrors.NewValidationError("amount", "O valor deve ser positivo."), "O valor deve ser positivo.", false},
		{"forbidden", fmt.Errorf("session x: %w", domerrors.ErrForbidden), MsgForbidden, false},
		{"expired", fmt.Errorf("session x: %w", domerrors.ErrExpired), MsgExpired, false},
		{"already resolved", fmt.Errorf("session x: %w", domerrors.ErrAlreadyResolved), MsgAlreadyResolved, false},
		{"not found", domerrors.ErrNotFound, MsgSessionNotFound, false},
		{"unknown command", domerrors.ErrUnknownCommand, MsgUnknownCommand, false},
		{"backend 4xx", domerrors.NewBackendError("coin", 400, "Você já coletou hoje", nil), "Você já coletou hoje", false},
		{"backend 4xx without message", domerrors.NewBackendError("coin", 404, "", nil), MsgInvalidRequest, false},
		{"backend 5xx", domerrors.NewBackendError("coin", 503, "", nil), MsgUnavailable, true},
		{"decode", domerrors.NewDecodeError("bet", "Event", errors.New("bad")), MsgUnexpectedReply, false},
		{"wrapped backend 5xx keeps user message", domerrors.NewWrapper("ai", "generate").Wrap(domerrors.NewBackendError("ai", 502, "", nil), "A IA não conseguiu responder agora."), "A IA não conseguiu responder agora.", false},
		{"wrapped with user message", domerrors.NewWrapper("economy", "transfer").Wrap(errors.New("x"), "Saldo insuficiente."), "Saldo insuficiente.", false},
		{"unknown", errors.New("boom"), MsgUnexpected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromError(tt.err)
			assert.Equal(t, tt.wantBody, m.Body)
			assert.Equal(t, tt.wantRetriable, m.Retriable)
		})
	}
}

func TestSplit_ShortText(t *testing.T) {
	assert.Equal(t, []string{"olá"}, Split("olá", 4000))
	assert.Equal(t, []string{""}, Split("", 4000))
}

func TestSplit_NineThousandChars(t *testing.T) {
	text := strings.Repeat("a", 9000)
	parts := Split(text, 4000)

	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 4000)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestSplit_PrefersWordBoundaries(t *testing.T) {
	word := "palavra "
	text := strings.Repeat(word, 1200) // 9600 runes
	parts := Split(text, 4000)

	assert.Equal(t, text, strings.Join(parts, ""))
	for _, p := range parts[:len(parts)-1] {
		assert.True(t, strings.HasSuffix(p, " "), "part should end at a space")
		assert.LessOrEqual(t, len([]rune(p)), 4000)
	}
}

func TestSplit_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("ção", 3000) // 9000 runes, more bytes
	parts := Split(text, 4000)

	require.Len(t, parts, 3)
	assert.Equal(t, text, strings.Join(parts, ""))
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 4000)
	}
}

func TestSplitMessage(t *testing.T) {
	msg := Message{
		Title:    "🧙 Mestre dos Magos",
		Body:     strings.Repeat("x", 9000),
		Fields:   []Field{{Name: "Custo", Value: "100 coins"}},
		Footer:   "rodapé",
		ImageURL: "https://example.com/a.png",
	}
	parts := SplitMessage(msg, 4000)

	require.Len(t, parts, 3)
	assert.Equal(t, "🧙 Mestre dos Magos (Parte 1/3)", parts[0].Title)
	assert.Equal(t, "🧙 Mestre dos Magos (Parte 3/3)", parts[2].Title)
	assert.Equal(t, 2, parts[1].Part)
	assert.Equal(t, 3, parts[1].Parts)
	assert.Equal(t, msg.ImageURL, parts[0].ImageURL)
	assert.Empty(t, parts[1].ImageURL)
	assert.Empty(t, parts[0].Fields)
	assert.Equal(t, msg.Fields, parts[2].Fields)
	assert.Equal(t, "rodapé", parts[2].Footer)

	single := SplitMessage(Message{Title: "t", Body: "curto"}, 4000)
	require.Len(t, single, 1)
	assert.Zero(t, single[0].Parts)
}

func TestPlainText(t *testing.T) {
	m := Info("Título", "Corpo").WithField("Saldo", "10", true).WithFooter("fim")
	assert.Equal(t, "Título\n\nCorpo\nSaldo: 10\n\nfim", m.PlainText())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.234.567 coins", Coins(1234567))
	assert.Equal(t, "42", Number(42))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
}
