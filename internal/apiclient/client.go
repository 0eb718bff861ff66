// Package apiclient issues HTTP requests to the backend collaborators and
// maps every outcome, including transport failures, into a Result.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Client performs single-attempt JSON requests. It never retries: commands
// such as transfers and bets are not idempotent.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	metrics    *metrics.Metrics
}

// New creates a client whose calls time out after timeout unless the
// request overrides it. m may be nil.
func New(timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout: timeout,
		metrics: m,
	}
}

// Request describes one backend call.
type Request struct {
	Backend string // name used in metrics and errors
	Method  string
	BaseURL string
	Path    string
	Query   url.Values
	Body    any // JSON-encoded when non-nil
	Timeout time.Duration
}

// Do executes req. It always returns a Result; transport failures become
// KindServerError with Status 0. The response body is fully read and
// closed before Do returns, and the per-call deadline is always released.
func (c *Client) Do(ctx context.Context, req Request) Result {
	start := time.Now()
	res := c.do(ctx, req)
	outcome := res.Kind.String()
	if res.IsTransportFailure() {
		outcome = "transport_error"
	}
	c.metrics.RecordBackend(req.Backend, outcome, time.Since(start))
	return res
}

func (c *Client) do(ctx context.Context, req Request) Result {
	res := Result{Backend: req.Backend, Kind: KindServerError}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target, err := buildURL(req.BaseURL, req.Path, req.Query)
	if err != nil {
		res.Cause = err
		return res
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			res.Cause = fmt.Errorf("encode request body: %w", err)
			return res
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		res.Cause = fmt.Errorf("create request: %w", err)
		return res
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", domerrors.ErrTimeout, timeout, err)
		}
		res.Cause = err
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.Status = resp.StatusCode
	res.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		// A truncated body is still a response; keep the status.
		res.Cause = fmt.Errorf("read response body: %w", err)
	}
	// Drain what LimitReader left so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		res.Kind = KindSuccess
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		res.Kind = KindClientError
	default:
		res.Kind = KindServerError
	}
	return res
}

func buildURL(base, path string, query url.Values) (string, error) {
	if base == "" {
		return "", errors.New("empty base URL")
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// Endpoint binds a backend name and base URL to a Client.
type Endpoint struct {
	client  *Client
	name    string
	baseURL string
}

// Endpoint returns a handle for calling one backend.
func (c *Client) Endpoint(name, baseURL string) *Endpoint {
	return &Endpoint{client: c, name: name, baseURL: baseURL}
}

// Name returns the backend name.
func (e *Endpoint) Name() string {
	return e.name
}

// Get issues a GET request.
func (e *Endpoint) Get(ctx context.Context, path string, query url.Values) Result {
	return e.Call(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body.
func (e *Endpoint) Post(ctx context.Context, path string, body any) Result {
	return e.Call(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (e *Endpoint) Delete(ctx context.Context, path string) Result {
	return e.Call(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Call fills in the backend name and base URL and executes req.
func (e *Endpoint) Call(ctx context.Context, req Request) Result {
	req.Backend = e.name
	req.BaseURL = e.baseURL
	return e.client.Do(ctx, req)
}
