package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
)

// ChallengeClient talks to the challenge backend, which keys participants
// by chat-platform user id.
type ChallengeClient struct {
	ep *apiclient.Endpoint
}

// NewChallengeClient creates a challenge client.
func NewChallengeClient(ep *apiclient.Endpoint) *ChallengeClient {
	return &ChallengeClient{ep: ep}
}

// Challenge is a scored duel between two users.
type Challenge struct {
	ID              ID     `json:"id"`
	ChallengerID    string `json:"challengerId"`
	ChallengedID    string `json:"challengedId"`
	ChannelID       string `json:"channelId"`
	Status          string `json:"status"`
	ChallengerScore int    `json:"challengerScore"`
	ChallengedScore int    `json:"challengedScore"`
	Description     string `json:"description"`
}

// Involves reports whether userID takes part in the challenge.
func (c Challenge) Involves(userID string) bool {
	return c.ChallengerID == userID || c.ChallengedID == userID
}

// Opponent returns the other participant.
func (c Challenge) Opponent(userID string) string {
	if c.ChallengerID == userID {
		return c.ChallengedID
	}
	return c.ChallengerID
}

// Leader returns the participant with the higher score, or "" on a tie.
func (c Challenge) Leader() string {
	switch {
	case c.ChallengerScore > c.ChallengedScore:
		return c.ChallengerID
	case c.ChallengedScore > c.ChallengerScore:
		return c.ChallengedID
	default:
		return ""
	}
}

// NewChallenge describes a challenge to create.
type NewChallenge struct {
	ChallengerID string `json:"challengerId"`
	ChallengedID string `json:"challengedId"`
	ChannelID    string `json:"channelId"`
	Description  string `json:"description"`
}

type createChallengeResponse struct {
	ID ID `json:"id"`
}

// Create opens a challenge. The backend answers 201 with the new id.
func (c *ChallengeClient) Create(ctx context.Context, nc NewChallenge) (ID, error) {
	res := c.ep.Post(ctx, "/challenge/create", nc)
	var resp createChallengeResponse
	if err := res.Decode("CreateChallenge", &resp); err != nil {
		return "", err
	}
	if res.Status != http.StatusCreated || resp.ID == "" {
		return "", domerrors.NewBackendError(c.ep.Name(), res.Status, "", nil)
	}
	return resp.ID, nil
}

// Accept marks the challenge as accepted.
func (c *ChallengeClient) Accept(ctx context.Context, id ID) error {
	return c.ep.Post(ctx, "/challenge/"+id.String()+"/accept", nil).Err()
}

// Reject marks the challenge as rejected.
func (c *ChallengeClient) Reject(ctx context.Context, id ID) error {
	return c.ep.Post(ctx, "/challenge/"+id.String()+"/reject", nil).Err()
}

type incrementRequest struct {
	ChallengeID ID     `json:"challengeId"`
	UserID      string `json:"userId"`
}

// Increment adds a point to userID and returns the updated challenge.
func (c *ChallengeClient) Increment(ctx context.Context, id ID, userID string) (Challenge, error) {
	var ch Challenge
	res := c.ep.Post(ctx, "/challenge/"+id.String()+"/increment", incrementRequest{ChallengeID: id, UserID: userID})
	if err := res.Decode("Challenge", &ch); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}

// Close ends the challenge and returns its final state.
func (c *ChallengeClient) Close(ctx context.Context, id ID) (Challenge, error) {
	var ch Challenge
	if err := c.ep.Post(ctx, "/challenge/"+id.String()+"/close", nil).Decode("Challenge", &ch); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}

// Active returns the open challenges of userID.
func (c *ChallengeClient) Active(ctx context.Context, userID string) ([]Challenge, error) {
	var list []Challenge
	if err := c.ep.Get(ctx, "/challenge/user/"+url.PathEscape(userID)+"/active", nil).Decode("[]Challenge", &list); err != nil {
		return nil, err
	}
	return list, nil
}
