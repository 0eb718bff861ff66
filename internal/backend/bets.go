package backend

import (
	"context"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
)

// BetClient talks to the betting backend.
type BetClient struct {
	ep *apiclient.Endpoint
}

// NewBetClient creates a bet client.
func NewBetClient(ep *apiclient.Endpoint) *BetClient {
	return &BetClient{ep: ep}
}

// NewEvent describes an event to create.
type NewEvent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Option1     string `json:"option1"`
	Option2     string `json:"option2"`
}

// Event is a bet event with its pool totals.
type Event struct {
	ID               ID     `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Option1          string `json:"option1"`
	Option2          string `json:"option2"`
	TotalBetAmount   int64  `json:"totalBetAmount"`
	Option1BetAmount int64  `json:"option1BetAmount"`
	Option2BetAmount int64  `json:"option2BetAmount"`
}

// Option returns the label of option n (1 or 2).
func (e Event) Option(n int) string {
	if n == 2 {
		return e.Option2
	}
	return e.Option1
}

// Odds returns the payout multiplier of option n if it won, or 0 when
// nobody has bet on it yet.
func (e Event) Odds(n int) float64 {
	pool := e.Option1BetAmount
	if n == 2 {
		pool = e.Option2BetAmount
	}
	if pool <= 0 {
		return 0
	}
	return float64(e.TotalBetAmount) / float64(pool)
}

type createEventResponse struct {
	EventID ID `json:"eventId"`
}

// CreateEvent creates an event and returns its id.
func (c *BetClient) CreateEvent(ctx context.Context, ev NewEvent) (ID, error) {
	var resp createEventResponse
	if err := c.ep.Post(ctx, "/bet/event", ev).Decode("CreateEvent", &resp); err != nil {
		return "", err
	}
	return resp.EventID, nil
}

type eventResponse struct {
	Event Event `json:"event"`
}

// Event returns one event.
func (c *BetClient) Event(ctx context.Context, id ID) (Event, error) {
	var resp eventResponse
	if err := c.ep.Get(ctx, "/bet/event/"+id.String(), nil).Decode("Event", &resp); err != nil {
		return Event{}, err
	}
	if resp.Event.ID == "" {
		resp.Event.ID = id
	}
	return resp.Event, nil
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

// Events returns the open events.
func (c *BetClient) Events(ctx context.Context) ([]Event, error) {
	var resp eventsResponse
	if err := c.ep.Get(ctx, "/bet/events", nil).Decode("Events", &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Bet is a wager on one option of an event.
type Bet struct {
	UserID       ID    `json:"userId"`
	EventID      ID    `json:"betEventId"`
	ChosenOption int   `json:"chosenOption"`
	Amount       int64 `json:"amount"`
}

// Place submits a wager.
func (c *BetClient) Place(ctx context.Context, b Bet) error {
	return c.ep.Post(ctx, "/bet/place", b).Err()
}

type finalizeRequest struct {
	EventID       ID  `json:"betEventId"`
	WinningOption int `json:"winningOption"`
}

// Finalize closes an event and pays the winners of option (1 or 2).
func (c *BetClient) Finalize(ctx context.Context, id ID, option int) error {
	return c.ep.Post(ctx, "/bet/finalize", finalizeRequest{EventID: id, WinningOption: option}).Err()
}

// Cancel deletes an event and refunds its bets.
func (c *BetClient) Cancel(ctx context.Context, id ID) error {
	return c.ep.Delete(ctx, "/bet/event/"+id.String()).Err()
}
