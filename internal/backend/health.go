package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
)

// ServiceState is the health of one backend.
type ServiceState int

const (
	StateOnline ServiceState = iota
	StateDegraded
	StateOffline
)

// ServiceHealth is the result of probing one backend.
type ServiceHealth struct {
	Name    string
	State   ServiceState
	Status  int // HTTP status, 0 when unreachable
	Latency time.Duration
}

// Label renders the state the way health_check shows it.
func (h ServiceHealth) Label() string {
	switch h.State {
	case StateOnline:
		return "🟢 Online"
	case StateDegraded:
		return fmt.Sprintf("🟡 Status %d", h.Status)
	default:
		return "🔴 Offline"
	}
}

// HealthChecker probes GET /health on every backend.
type HealthChecker struct {
	endpoints []*apiclient.Endpoint
	timeout   time.Duration
}

// NewHealthChecker creates a checker with a per-probe timeout.
func NewHealthChecker(endpoints []*apiclient.Endpoint, timeout time.Duration) *HealthChecker {
	return &HealthChecker{endpoints: endpoints, timeout: timeout}
}

// Check probes all backends concurrently. Results keep the endpoint order.
// A failed probe is reported in its entry, never as an error.
func (h *HealthChecker) Check(ctx context.Context) []ServiceHealth {
	results := make([]ServiceHealth, len(h.endpoints))
	g, gctx := errgroup.WithContext(ctx)

	for i, ep := range h.endpoints {
		g.Go(func() error {
			start := time.Now()
			res := ep.Call(gctx, apiclient.Request{
				Method:  http.MethodGet,
				Path:    "/health",
				Timeout: h.timeout,
			})
			sh := ServiceHealth{Name: ep.Name(), Status: res.Status, Latency: time.Since(start)}
			switch {
			case res.Status == http.StatusOK:
				sh.State = StateOnline
			case res.Status != 0:
				sh.State = StateDegraded
			default:
				sh.State = StateOffline
			}
			results[i] = sh
			return nil
		})
	}
	_ = g.Wait()
	return results
}
