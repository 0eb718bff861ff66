package bot

import "context"

// NameLookup resolves a chat user's display name.
type NameLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// FallbackName is the name used for a user whose profile is unavailable.
func FallbackName(userID string) string {
	if len(userID) > 4 {
		return "Usuário " + userID[len(userID)-4:]
	}
	return "Usuário"
}
