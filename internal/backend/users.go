package backend

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/singleflight"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
)

// User is a registered client. PlatformID holds the chat-platform user id
// (the backend names the field discordId).
type User struct {
	ID         ID     `json:"id"`
	PlatformID string `json:"discordId"`
	Name       string `json:"name"`
}

// UserClient talks to the client (user registry) backend.
type UserClient struct {
	ep      *apiclient.Endpoint
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewUserClient creates a user client.
func NewUserClient(ep *apiclient.Endpoint, m *metrics.Metrics) *UserClient {
	return &UserClient{ep: ep, metrics: m}
}

type registerRequest struct {
	PlatformID string `json:"discordId"`
	Username   string `json:"username"`
}

// Register creates a user. A duplicate registration comes back as a 4xx
// BackendError carrying the backend's message.
func (c *UserClient) Register(ctx context.Context, platformID, username string) error {
	res := c.ep.Post(ctx, "/client/register", registerRequest{PlatformID: platformID, Username: username})
	return res.Err()
}

// Delete removes the user identified by its platform id.
func (c *UserClient) Delete(ctx context.Context, platformID string) error {
	return c.ep.Delete(ctx, "/client/"+url.PathEscape(platformID)).Err()
}

// List returns every registered user.
func (c *UserClient) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.ep.Get(ctx, "/client/", nil).Decode("[]User", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Find returns the user with platformID, or ok=false when absent.
func (c *UserClient) Find(ctx context.Context, platformID string) (User, bool, error) {
	users, err := c.List(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, u := range users {
		if u.PlatformID == platformID {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

// GetOrCreate returns the user with platformID, registering it first when
// absent. Concurrent calls for the same platformID share one lookup, which
// outlives the cancellation of any single caller.
func (c *UserClient) GetOrCreate(ctx context.Context, platformID, name string) (User, error) {
	ch := c.group.DoChan(platformID, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		u, ok, err := c.Find(ctx, platformID)
		if err != nil {
			return User{}, err
		}
		if ok {
			return u, nil
		}
		if err := c.Register(ctx, platformID, name); err != nil {
			return User{}, err
		}
		u, ok, err = c.Find(ctx, platformID)
		if err != nil {
			return User{}, err
		}
		if !ok {
			return User{}, fmt.Errorf("user %s missing after registration", platformID)
		}
		return u, nil
	})

	select {
	case <-ctx.Done():
		return User{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordSingleflightDedup("get_or_create_user")
		}
		if res.Err != nil {
			return User{}, res.Err
		}
		return res.Val.(User), nil
	}
}
