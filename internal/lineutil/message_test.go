package lineutil

import (
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

func TestStatusColor(t *testing.T) {
	assert.Equal(t, ColorPrimary, StatusColor(render.StatusSuccess))
	assert.Equal(t, ColorWarning, StatusColor(render.StatusWarning))
	assert.Equal(t, ColorDanger, StatusColor(render.StatusError))
	assert.Equal(t, ColorInfo, StatusColor(render.StatusInfo))
}

func TestNewMessageBubble(t *testing.T) {
	m := render.Error("❌ Erro", "Saldo insuficiente.").
		WithField("Saldo", "10 coins", true).
		WithField("Valor", "50 coins", true).
		WithField("Descrição", "Rodada de cerveja", false).
		WithFooter("Uso: /fazer_transferencia")

	bubble := NewMessageBubble(m, nil)
	require.NotNil(t, bubble.Header)
	header := bubble.Header
	assert.Equal(t, ColorDanger, header.BackgroundColor)
	assert.Nil(t, bubble.Footer)

	// body text, inline group, info row, footer text
	assert.Len(t, bubble.Body.Contents, 7)
}

func TestNewMessageBubble_ColorOverride(t *testing.T) {
	m := render.Info("Bússola", "x")
	m.Color = "#123456"
	bubble := NewMessageBubble(m, nil)
	assert.Equal(t, "#123456", bubble.Header.BackgroundColor)
}

func TestNewMessageBubble_NoTitleNoBody(t *testing.T) {
	bubble := NewMessageBubble(render.Message{}, nil)
	assert.Nil(t, bubble.Header)
	require.NotNil(t, bubble.Body)
	assert.Len(t, bubble.Body.Contents, 1)
}

func TestAltText(t *testing.T) {
	assert.Equal(t, "Título", AltText(render.Info("Título", "corpo")))
	assert.Equal(t, "corpo", AltText(render.Info("", "corpo")))
	assert.Equal(t, "Mensagem", AltText(render.Message{}))
}

func TestNewRenderedMessage_Dismiss(t *testing.T) {
	msgs := NewRenderedMessage(render.Dismissed(), nil, nil)
	require.Len(t, msgs, 1)
	text, ok := msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, render.MsgInteractionEnded, text.Text)
}

func TestNewRenderedMessage_SplitsLongBodyAndKeepsControlsLast(t *testing.T) {
	m := render.Info("Resposta", strings.Repeat("palavra ", 300)).WithImage("https://cdn.example.com/c.png")
	extra := NewConfirmRow("dlg$s$confirm", "dlg$s$cancel")

	msgs := NewRenderedMessage(m, extra, GetSender("Mestre dos Magos", ""))
	// two bubbles plus the image after the first
	require.Len(t, msgs, 3)

	first, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Nil(t, first.Contents.(*messaging_api.FlexBubble).Footer)
	assert.Equal(t, "Mestre dos Magos", first.Sender.Name)

	_, isImage := msgs[1].(*messaging_api.ImageMessage)
	assert.True(t, isImage)

	last := msgs[2].(*messaging_api.FlexMessage)
	assert.NotNil(t, last.Contents.(*messaging_api.FlexBubble).Footer)
}

func TestNewRenderedMessage_PartTitlesAreNotNested(t *testing.T) {
	parts := render.SplitMessage(render.Info("Resposta", strings.Repeat("a", 9000)), render.DefaultLimit)
	require.Len(t, parts, 3)

	var titles []string
	for _, msg := range NewRenderedMessages(parts, nil) {
		flex, ok := msg.(*messaging_api.FlexMessage)
		require.True(t, ok)
		titles = append(titles, flex.AltText)
	}
	assert.Equal(t, []string{
		"Resposta (Parte 1/3)", "Resposta (Parte 1/3)",
		"Resposta (Parte 2/3)", "Resposta (Parte 2/3)",
		"Resposta (Parte 3/3)",
	}, titles)
}

func TestNewRenderedMessage_LongBodyIsNumbered(t *testing.T) {
	msgs := NewRenderedMessage(render.Info("Resposta", strings.Repeat("a", 3000)), nil, nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Resposta (Parte 1/2)", msgs[0].(*messaging_api.FlexMessage).AltText)
	assert.Equal(t, "Resposta (Parte 2/2)", msgs[1].(*messaging_api.FlexMessage).AltText)
}

func TestNewRenderedMessages(t *testing.T) {
	msgs := NewRenderedMessages([]render.Message{render.Info("a", "b"), render.Dismissed()}, nil)
	require.Len(t, msgs, 2)
	_, isText := msgs[1].(*messaging_api.TextMessage)
	assert.True(t, isText)
}

func TestNewRenderedMessage_Buttons(t *testing.T) {
	m := render.Info("Evento", "x").WithButton("🅰️ Opção 1", "bet:pick$7$1").WithButton("🅱️ Opção 2", "bet:pick$7$2")

	msgs := NewRenderedMessage(m, nil, nil)
	require.Len(t, msgs, 1)
	footer := msgs[0].(*messaging_api.FlexMessage).Contents.(*messaging_api.FlexBubble).Footer
	require.NotNil(t, footer)
	require.Len(t, footer.Contents, 2)
	btn := footer.Contents[1].(*messaging_api.FlexBox).Contents[0].(*messaging_api.FlexButton)
	assert.Equal(t, "bet:pick$7$2", btn.Action.(*messaging_api.PostbackAction).Data)
}

func TestNewRenderedMessage_EmptyExtraIsDropped(t *testing.T) {
	msgs := NewRenderedMessage(render.Info("a", "b"), NewButtonFooter(), nil)
	assert.Nil(t, msgs[0].(*messaging_api.FlexMessage).Contents.(*messaging_api.FlexBubble).Footer)
}
