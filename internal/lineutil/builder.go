// Package lineutil provides utility functions for building LINE messages and actions.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewImageMessage creates an image message. LINE requires HTTPS URLs.
func NewImageMessage(originalContentURL, previewImageURL string) *messaging_api.ImageMessage {
	if previewImageURL == "" {
		previewImageURL = originalContentURL
	}
	return &messaging_api.ImageMessage{
		OriginalContentUrl: originalContentURL,
		PreviewImageUrl:    previewImageURL,
	}
}

// NewTextMessage creates a plain text message, truncated to the LINE limit.
func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text: TruncateRunes(text, MaxTextMessageLength),
	}
}

// NewQuickReply creates a quick reply component. LINE allows at most 13 items.
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		quickReplyItems[i] = messaging_api.QuickReplyItem{
			Action:   item.Action,
			ImageUrl: item.ImageURL,
		}
	}
	return &messaging_api.QuickReply{Items: quickReplyItems}
}

// NewMessageAction creates an action that sends text as the user when tapped.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: TruncateRunes(label, MaxActionLabel),
		Text:  text,
	}
}

// NewPostbackAction creates a postback action that sends data to the bot when clicked.
func NewPostbackAction(label, data string) Action {
	return &messaging_api.PostbackAction{
		Label: TruncateRunes(label, MaxActionLabel),
		Data:  data,
	}
}

// NewPostbackActionWithDisplayText creates a postback action that also
// echoes displayText in the chat as the user.
func NewPostbackActionWithDisplayText(label, displayText, data string) Action {
	return &messaging_api.PostbackAction{
		Label:       TruncateRunes(label, MaxActionLabel),
		DisplayText: displayText,
		Data:        data,
	}
}

// NewURIAction creates a URI action that opens a URL when clicked.
func NewURIAction(label, uri string) Action {
	return &messaging_api.UriAction{
		Label: TruncateRunes(label, MaxActionLabel),
		Uri:   uri,
	}
}

// NewFlexMessage creates a flex message with the given alt text and flex container.
func NewFlexMessage(altText string, contents messaging_api.FlexContainerInterface) *messaging_api.FlexMessage {
	return &messaging_api.FlexMessage{
		AltText:  TruncateRunes(altText, MaxAltTextLength),
		Contents: contents,
	}
}

// SetSender sets the Sender field on a message and returns it.
func SetSender(msg messaging_api.MessageInterface, sender *messaging_api.Sender) messaging_api.MessageInterface {
	if sender == nil {
		return msg
	}

	switch m := msg.(type) {
	case *messaging_api.TextMessage:
		m.Sender = sender
	case *messaging_api.FlexMessage:
		m.Sender = sender
	case *messaging_api.ImageMessage:
		m.Sender = sender
	}
	return msg
}

// AddQuickReplyToMessages attaches quick reply items to the last message.
// It is a no-op when the last message does not support quick replies.
func AddQuickReplyToMessages(messages []messaging_api.MessageInterface, items ...QuickReplyItem) {
	if len(messages) == 0 || len(items) == 0 {
		return
	}
	qr := NewQuickReply(items)
	switch m := messages[len(messages)-1].(type) {
	case *messaging_api.TextMessage:
		m.QuickReply = qr
	case *messaging_api.FlexMessage:
		m.QuickReply = qr
	case *messaging_api.ImageMessage:
		m.QuickReply = qr
	}
}
