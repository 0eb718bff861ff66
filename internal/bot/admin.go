package bot

import (
	"context"
	"slices"
)

// AdminChecker decides whether an actor may run administrative commands.
type AdminChecker interface {
	IsAdmin(ctx context.Context, actorID string) bool
}

// AllowList is an AdminChecker backed by a fixed list of user IDs.
type AllowList []string

// IsAdmin reports whether actorID is on the list.
func (l AllowList) IsAdmin(_ context.Context, actorID string) bool {
	return actorID != "" && slices.Contains(l, actorID)
}
