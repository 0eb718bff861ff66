package backend

import (
	"context"
	"sort"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
)

// BalanceClient talks to the balance backend.
type BalanceClient struct {
	ep *apiclient.Endpoint
}

// NewBalanceClient creates a balance client.
func NewBalanceClient(ep *apiclient.Endpoint) *BalanceClient {
	return &BalanceClient{ep: ep}
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

// Balance returns the coin balance of clientID.
func (c *BalanceClient) Balance(ctx context.Context, clientID ID) (int64, error) {
	var resp balanceResponse
	if err := c.ep.Get(ctx, "/balance/"+clientID.String(), nil).Decode("Balance", &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// Transfer moves coins between two clients.
type Transfer struct {
	SenderID    ID     `json:"senderId"`
	ReceiverID  ID     `json:"receiverId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Transfer executes t.
func (c *BalanceClient) Transfer(ctx context.Context, t Transfer) error {
	return c.ep.Post(ctx, "/balance/transaction", t).Err()
}

type subtractRequest struct {
	ClientID    ID     `json:"clientId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Subtract charges amount from clientID.
func (c *BalanceClient) Subtract(ctx context.Context, clientID ID, amount int64, description string) error {
	return c.ep.Post(ctx, "/balance/subtract", subtractRequest{
		ClientID:    clientID,
		Amount:      amount,
		Description: description,
	}).Err()
}

// Operation is one entry of a client's statement. Positive amounts are
// income, negative amounts are expenses.
type Operation struct {
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Operations returns clientID's statement, newest first.
func (c *BalanceClient) Operations(ctx context.Context, clientID ID) ([]Operation, error) {
	var ops []Operation
	if err := c.ep.Get(ctx, "/balance/operations/"+clientID.String(), nil).Decode("[]Operation", &ops); err != nil {
		return nil, err
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].CreatedAt.After(ops[j].CreatedAt)
	})
	return ops, nil
}

// Totals sums income and expenses (as a positive number) of ops.
func Totals(ops []Operation) (income, expense int64) {
	for _, op := range ops {
		switch {
		case op.Amount > 0:
			income += op.Amount
		case op.Amount < 0:
			expense -= op.Amount
		}
	}
	return income, expense
}
