// Package member maps chat users to backend clients.
package member

import (
	"context"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
)

// Directory finds or registers the backend client of a chat user.
type Directory struct {
	users  *backend.UserClient
	names  bot.NameLookup
	logger *logger.Logger
}

// NewDirectory creates a directory. names may be nil, in which case
// generated names are used on registration.
func NewDirectory(users *backend.UserClient, names bot.NameLookup, log *logger.Logger) *Directory {
	return &Directory{users: users, names: names, logger: log}
}

// Name returns the display name of a chat user, falling back to a name
// derived from the ID.
func (d *Directory) Name(ctx context.Context, userID string) string {
	if d.names == nil {
		return bot.FallbackName(userID)
	}
	name, err := d.names.DisplayName(ctx, userID)
	if err != nil || name == "" {
		if err != nil {
			d.logger.WithError(err).DebugContext(ctx, "Profile lookup failed")
		}
		return bot.FallbackName(userID)
	}
	return name
}

// Ensure returns the client of userID, registering it under its display
// name when it does not exist yet.
func (d *Directory) Ensure(ctx context.Context, userID string) (backend.User, error) {
	return d.users.GetOrCreate(ctx, userID, d.Name(ctx, userID))
}

// Users exposes the underlying client.
func (d *Directory) Users() *backend.UserClient {
	return d.users
}
