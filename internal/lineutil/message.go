package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// MaxBubbleBodyLength is the body length, in runes, above which a message is
// split into several bubbles.
const MaxBubbleBodyLength = 2000

// NewMessageBubble lays out a rendered message as a bubble: a status-colored
// hero with the title, the body, one row per field and the footer text.
// extra, when non-nil, becomes the bubble footer (buttons).
func NewMessageBubble(m render.Message, extra *FlexBox) messaging_api.FlexBubble {
	color := m.Color
	if color == "" {
		color = StatusColor(m.Status)
	}

	var header *FlexBox
	if m.Title != "" {
		header = NewHeroBox(m.Title, "", color)
	}

	body := NewBodyContentBuilder().AddText(m.Body)
	var inline []messaging_api.FlexComponentInterface
	flushInline := func() {
		if len(inline) > 0 {
			body.AddComponent(NewFlexBox("vertical", inline...).WithSpacing("sm").FlexBox)
			inline = nil
		}
	}
	for _, f := range m.Fields {
		if f.Inline {
			inline = append(inline, NewInlineRow(f.Name, f.Value).FlexBox)
			continue
		}
		flushInline()
		body.AddComponent(NewInfoRow(f.Name, f.Value).FlexBox)
	}
	flushInline()
	if m.Footer != "" {
		body.AddComponent(NewFlexText(m.Footer).WithSize("xxs").WithColor(ColorSubtext).WithWrap(true).FlexText)
	}
	if body.Len() == 0 {
		body.AddText(" ")
	}

	bubble := NewFlexBubble(header, nil, body.Build(), extra)
	return *bubble.FlexBubble
}

// AltText returns the notification preview for m: the title, or the body
// when there is none.
func AltText(m render.Message) string {
	if m.Title != "" {
		return TruncateRunes(m.Title, MaxAltTextLength)
	}
	if m.Body != "" {
		return TruncateRunes(m.Body, MaxAltTextLength)
	}
	return "Mensagem"
}

// NewRenderedMessage converts one rendered message into LINE messages.
// Dismissal notices become plain text. Long bodies are split across
// bubbles, numbered unless m is itself a part; an image follows the first bubble as its own message. The
// message buttons and extra are attached to the last bubble only.
func NewRenderedMessage(m render.Message, extra *FlexBox, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	if m.Dismiss {
		return []messaging_api.MessageInterface{SetSender(NewTextMessage(m.PlainText()), sender)}
	}

	parts := render.SplitMessage(m, MaxBubbleBodyLength)
	if m.Parts > 1 {
		// already numbered upstream; its bubbles share the part title
		for i := range parts {
			parts[i].Title = m.Title
		}
	}
	out := make([]messaging_api.MessageInterface, 0, len(parts)+1)
	for i, part := range parts {
		var footer *FlexBox
		if i == len(parts)-1 {
			footer = actionFooter(part.Buttons, extra)
		}
		bubble := NewMessageBubble(part, footer)
		out = append(out, SetSender(NewFlexMessage(AltText(part), &bubble), sender))
		if part.ImageURL != "" {
			out = append(out, SetSender(NewImageMessage(part.ImageURL, ""), sender))
		}
	}
	return out
}

// NewRenderedMessages converts a list of rendered messages in order.
func NewRenderedMessages(msgs []render.Message, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	var out []messaging_api.MessageInterface
	for _, m := range msgs {
		out = append(out, NewRenderedMessage(m, nil, sender)...)
	}
	return out
}

// actionFooter stacks message buttons above extra. It returns nil when
// there is nothing to show, since LINE rejects empty boxes.
func actionFooter(buttons []render.Button, extra *FlexBox) *FlexBox {
	if extra != nil && len(extra.Contents) == 0 {
		extra = nil
	}
	if len(buttons) == 0 {
		return extra
	}

	options := make([]OptionButton, 0, min(len(buttons), MaxOptionButtons))
	for _, b := range buttons[:min(len(buttons), MaxOptionButtons)] {
		options = append(options, OptionButton{Label: b.Label, Data: b.Data})
	}
	footer := NewOptionFooters(options)[0]
	if extra == nil {
		return footer
	}
	return NewButtonFooter(footer, extra)
}
