package lineutil

import (
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextMessage_Truncates(t *testing.T) {
	msg := NewTextMessage(strings.Repeat("a", MaxTextMessageLength+10))
	assert.Equal(t, MaxTextMessageLength, len([]rune(msg.Text)))
	assert.True(t, strings.HasSuffix(msg.Text, "..."))
}

func TestNewImageMessage_DefaultsPreview(t *testing.T) {
	msg := NewImageMessage("https://cdn.example.com/a.png", "")
	assert.Equal(t, "https://cdn.example.com/a.png", msg.PreviewImageUrl)
}

func TestNewQuickReply_CapsItems(t *testing.T) {
	items := make([]QuickReplyItem, 20)
	for i := range items {
		items[i] = QuickReplyItem{Action: NewMessageAction("x", "/ajuda")}
	}
	qr := NewQuickReply(items)
	assert.Len(t, qr.Items, MaxQuickReplyItemCount)
}

func TestActions_TruncateLabel(t *testing.T) {
	long := strings.Repeat("b", 60)

	pb := NewPostbackAction(long, "bet:option$1").(*messaging_api.PostbackAction)
	assert.Len(t, []rune(pb.Label), MaxActionLabel)
	assert.Equal(t, "bet:option$1", pb.Data)

	pbd := NewPostbackActionWithDisplayText("ok", "Confirmar", "dlg$s$confirm").(*messaging_api.PostbackAction)
	assert.Equal(t, "Confirmar", pbd.DisplayText)

	uri := NewURIAction("site", "https://example.com").(*messaging_api.UriAction)
	assert.Equal(t, "https://example.com", uri.Uri)
}

func TestSetSender(t *testing.T) {
	sender := GetSender("Banqueiro", "")
	for _, msg := range []messaging_api.MessageInterface{
		NewTextMessage("a"),
		NewImageMessage("https://x/y.png", ""),
		NewFlexMessage("alt", NewFlexBubble(nil, nil, NewFlexBox("vertical"), nil).FlexBubble),
	} {
		SetSender(msg, sender)
	}

	text := SetSender(NewTextMessage("b"), nil).(*messaging_api.TextMessage)
	assert.Nil(t, text.Sender)

	withSender := SetSender(NewTextMessage("c"), sender).(*messaging_api.TextMessage)
	assert.Equal(t, "Banqueiro", withSender.Sender.Name)
}

func TestAddQuickReplyToMessages(t *testing.T) {
	msgs := []messaging_api.MessageInterface{NewTextMessage("a"), NewTextMessage("b")}
	AddQuickReplyToMessages(msgs, QuickReplyItem{Action: NewMessageAction("Ajuda", "/ajuda")})

	assert.Nil(t, msgs[0].(*messaging_api.TextMessage).QuickReply)
	last := msgs[1].(*messaging_api.TextMessage)
	require.NotNil(t, last.QuickReply)
	assert.Len(t, last.QuickReply.Items, 1)

	AddQuickReplyToMessages(nil, QuickReplyItem{})
}
