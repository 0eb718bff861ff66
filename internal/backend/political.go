package backend

import (
	"context"
	"net/url"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
)

// PoliticalClient talks to the political-compass backend, which keys
// positions by the chat-platform user id.
type PoliticalClient struct {
	ep *apiclient.Endpoint
}

// NewPoliticalClient creates a political client.
func NewPoliticalClient(ep *apiclient.Endpoint) *PoliticalClient {
	return &PoliticalClient{ep: ep}
}

// Position is a user's compass position.
type Position struct {
	User string  `json:"usuario"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type setPositionRequest struct {
	User string  `json:"usuario"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// SetPosition stores the position of user.
func (c *PoliticalClient) SetPosition(ctx context.Context, user string, x, y float64) error {
	return c.ep.Post(ctx, "/definir_posicao_politica", setPositionRequest{User: user, X: x, Y: y}).Err()
}

// Position returns the stored position of user. A user without a position
// yields a 404 BackendError.
func (c *PoliticalClient) Position(ctx context.Context, user string) (Position, error) {
	var p Position
	if err := c.ep.Get(ctx, "/ver_posicao_politica/"+url.PathEscape(user), nil).Decode("Position", &p); err != nil {
		return Position{}, err
	}
	if p.User == "" {
		p.User = user
	}
	return p, nil
}

// Chart is every stored position.
type Chart struct {
	Positions []Position `json:"positions"`
	Count     int        `json:"count"`
}

// Chart returns all positions for the compass chart.
func (c *PoliticalClient) Chart(ctx context.Context) (Chart, error) {
	var ch Chart
	if err := c.ep.Get(ctx, "/grafico_politico", nil).Decode("Chart", &ch); err != nil {
		return Chart{}, err
	}
	if ch.Count == 0 {
		ch.Count = len(ch.Positions)
	}
	return ch, nil
}
