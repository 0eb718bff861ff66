package webhook

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Messenger is the subset of the LINE Messaging API the bot calls.
// *messaging_api.MessagingApiAPI satisfies it.
type Messenger interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	PushMessage(req *messaging_api.PushMessageRequest, xLineRetryKey string) (*messaging_api.PushMessageResponse, error)
	ShowLoadingAnimation(req *messaging_api.ShowLoadingAnimationRequest) (*map[string]interface{}, error)
}
