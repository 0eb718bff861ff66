package bot

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// Source identifies who sent an event and in which chat.
type Source struct {
	UserID string
	// ChatID is the user ID in a 1:1 chat, the group or room ID otherwise.
	ChatID   string
	Personal bool
}

// SourceOf extracts the sender and chat from a LINE event source. Unknown
// source types yield a zero Source.
func SourceOf(source webhook.SourceInterface) Source {
	switch s := source.(type) {
	case webhook.UserSource:
		return Source{UserID: s.UserId, ChatID: s.UserId, Personal: true}
	case webhook.GroupSource:
		return Source{UserID: s.UserId, ChatID: s.GroupId}
	case webhook.RoomSource:
		return Source{UserID: s.UserId, ChatID: s.RoomId}
	}
	return Source{}
}
