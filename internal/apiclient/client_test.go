package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{"ok json", http.StatusOK, `{"balance": 10}`, KindSuccess, ""},
		{"created", http.StatusCreated, `{"id": "c1"}`, KindSuccess, ""},
		{"bad request with detail", http.StatusBadRequest, `{"detail": "Usuário já registrado"}`, KindClientError, "Usuário já registrado"},
		{"not found with error field", http.StatusNotFound, `{"error": "not found"}`, KindClientError, "not found"},
		{"client error plain text", http.StatusConflict, "duplicate", KindClientError, "duplicate"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"x must be <= 10"}]}`, KindClientError, "x must be <= 10"},
		{"server error", http.StatusInternalServerError, `{"detail": "db down"}`, KindServerError, "db down"},
		{"redirect is not success", http.StatusFound, "", KindServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			res := New(time.Second, nil).Endpoint("balance", srv.URL).Get(context.Background(), "/balance/1", nil)

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.status, res.Status)
			assert.False(t, res.IsTransportFailure())
			assert.Equal(t, tt.wantMsg, res.Message())
		})
	}
}

func TestClient_SendsJSONBodyAndQuery(t *testing.T) {
	var gotBody map[string]any
	var gotQuery, gotPath, gotMethod, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(time.Second, nil)
	ep := c.Endpoint("coin", srv.URL+"/")

	res := ep.Post(context.Background(), "daily-coins", map[string]any{"clientId": "42"})
	require.True(t, res.OK())
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/daily-coins", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "42", gotBody["clientId"])

	res = ep.Get(context.Background(), "/daily-coins/history/42", url.Values{"limit": {"30"}})
	require.True(t, res.OK())
	assert.Equal(t, "limit=30", gotQuery)
}

func TestClient_TransportFailure(t *testing.T) {
	// Reserve a port and close it so the connection is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	res := New(time.Second, nil).Endpoint("bet", "http://"+addr).Get(context.Background(), "/bet/events", nil)

	assert.Equal(t, KindServerError, res.Kind)
	assert.True(t, res.IsTransportFailure())
	assert.Zero(t, res.Status)
	require.Error(t, res.Cause)

	var backendErr *domerrors.BackendError
	require.ErrorAs(t, res.Err(), &backendErr)
	assert.Equal(t, "bet", backendErr.Backend)
	assert.False(t, backendErr.IsClientError())
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := New(5*time.Second, nil).Endpoint("ai", srv.URL).Call(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "/health",
		Timeout: 50 * time.Millisecond,
	})

	assert.Less(t, time.Since(start), 2*time.Second, "per-call timeout overrides the client default")
	assert.True(t, res.IsTransportFailure())
	assert.True(t, errors.Is(res.Cause, domerrors.ErrTimeout))
}

func TestClient_RecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	New(time.Second, m).Endpoint("client", srv.URL).Post(context.Background(), "/client/register", map[string]string{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("client", "client_error")))
}

func TestResult_Decode(t *testing.T) {
	type balance struct {
		Balance int64 `json:"balance"`
	}

	t.Run("success", func(t *testing.T) {
		var b balance
		res := Result{Backend: "balance", Kind: KindSuccess, Status: 200, Body: []byte(`{"balance": 70}`)}
		require.NoError(t, res.Decode("Balance", &b))
		assert.EqualValues(t, 70, b.Balance)
	})

	t.Run("shape mismatch is a decode error", func(t *testing.T) {
		var b balance
		res := Result{Backend: "balance", Kind: KindSuccess, Status: 200, Body: []byte(`{"balance": "lots"}`)}
		err := res.Decode("Balance", &b)
		var decodeErr *domerrors.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "Balance", decodeErr.Target)
	})

	t.Run("client error is surfaced, not decoded", func(t *testing.T) {
		var b balance
		res := Result{Backend: "balance", Kind: KindClientError, Status: 404, Body: []byte(`{"detail": "Cliente não encontrado"}`)}
		err := res.Decode("Balance", &b)
		var backendErr *domerrors.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, 404, backendErr.Status)
		assert.Equal(t, "Cliente não encontrado", domerrors.GetUserMessage(err))
	})

	t.Run("server error hides body", func(t *testing.T) {
		res := Result{Backend: "balance", Kind: KindServerError, Status: 500, Body: []byte(`{"detail": "sql: no rows"}`)}
		assert.Empty(t, domerrors.GetUserMessage(res.Err()))
	})
}
