package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// SenderSystem signs messages from modules without a persona of their own.
const SenderSystem = "Buteco"

// GetSender creates a sender with the given display name. iconURL may be
// empty, in which case LINE shows the bot's own avatar.
//
// Usage:
//
//	sender := lineutil.GetSender("Banqueiro do Buteco", "")
//	msgs := []messaging_api.MessageInterface{lineutil.SetSender(msg1, sender), lineutil.SetSender(msg2, sender)}
func GetSender(name, iconURL string) *messaging_api.Sender {
	return &messaging_api.Sender{
		Name:    TruncateRunes(name, 20),
		IconUrl: iconURL,
	}
}
