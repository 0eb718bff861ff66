package webhook

import (
	"context"
	"strings"
	"sync"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// ProfileFetcher is the profile endpoint of the Messaging API.
type ProfileFetcher interface {
	GetProfile(userID string) (*messaging_api.UserProfileResponse, error)
}

// maxCachedProfiles bounds the name cache; it is cleared when full.
const maxCachedProfiles = 10000

// ProfileLookup resolves display names through the LINE profile API and
// caches them for the life of the process.
type ProfileLookup struct {
	client ProfileFetcher

	mu    sync.Mutex
	names map[string]string
}

// NewProfileLookup creates a lookup backed by client.
func NewProfileLookup(client ProfileFetcher) *ProfileLookup {
	return &ProfileLookup{client: client, names: make(map[string]string)}
}

// DisplayName returns the user's LINE display name. Users who never added
// the bot as a friend have no readable profile and yield an error.
func (p *ProfileLookup) DisplayName(_ context.Context, userID string) (string, error) {
	p.mu.Lock()
	name, ok := p.names[userID]
	p.mu.Unlock()
	if ok {
		return name, nil
	}

	profile, err := p.client.GetProfile(userID)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(profile.DisplayName)

	p.mu.Lock()
	if len(p.names) >= maxCachedProfiles {
		clear(p.names)
	}
	p.names[userID] = name
	p.mu.Unlock()
	return name, nil
}
