package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
)

// CoinClient talks to the daily-coins backend.
type CoinClient struct {
	ep *apiclient.Endpoint
}

// NewCoinClient creates a coin client.
func NewCoinClient(ep *apiclient.Endpoint) *CoinClient {
	return &CoinClient{ep: ep}
}

// Claim is the outcome of a daily claim.
type Claim struct {
	Amount int64 `json:"amount"`
	// AlreadyClaimed is set when the backend refused because today's coins
	// were already collected; Message carries its explanation.
	AlreadyClaimed bool   `json:"-"`
	Message        string `json:"-"`
}

type claimRequest struct {
	ClientID ID `json:"clientId"`
}

// Claim collects today's coins for clientID. A 400 answer is not an error:
// it means the coins were already claimed today.
func (c *CoinClient) Claim(ctx context.Context, clientID ID) (Claim, error) {
	res := c.ep.Post(ctx, "/daily-coins", claimRequest{ClientID: clientID})
	if res.Kind == apiclient.KindClientError && res.Status == http.StatusBadRequest {
		return Claim{AlreadyClaimed: true, Message: res.Message()}, nil
	}
	var claim Claim
	if err := res.Decode("Claim", &claim); err != nil {
		return Claim{}, err
	}
	return claim, nil
}

// ClaimEntry is one past claim.
type ClaimEntry struct {
	ClaimDate string `json:"claimDate"`
	Amount    int64  `json:"amount"`
}

// CoinHistory summarises a client's claims.
type CoinHistory struct {
	TotalClaims      int64        `json:"totalClaims"`
	TotalCoinsEarned int64        `json:"totalCoinsEarned"`
	History          []ClaimEntry `json:"history"`
}

// History returns up to limit past claims of clientID.
func (c *CoinClient) History(ctx context.Context, clientID ID, limit int) (CoinHistory, error) {
	var h CoinHistory
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.ep.Get(ctx, "/daily-coins/history/"+clientID.String(), q).Decode("CoinHistory", &h); err != nil {
		return CoinHistory{}, err
	}
	return h, nil
}
