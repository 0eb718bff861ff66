package webhook

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/lineutil"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
)

// Navigation labels. LINE cannot edit a sent message, so every control
// press answers with a fresh bubble.
const (
	labelFirst  = "⏮"
	labelPrev   = "◀"
	labelNext   = "▶"
	labelLast   = "⏭"
	labelDelete = "🗑️ Fechar"
)

// Presenter turns bot responses into LINE messages.
type Presenter struct {
	sender *messaging_api.Sender
}

// NewPresenter creates a presenter that signs every message as sender.
// A nil sender leaves the bot's own profile.
func NewPresenter(sender *messaging_api.Sender) *Presenter {
	return &Presenter{sender: sender}
}

// Present renders a response in order: plain messages first, then the
// paginated view or dialog.
func (p *Presenter) Present(r bot.Response) []messaging_api.MessageInterface {
	sender := p.senderFor(r.Persona)
	out := lineutil.NewRenderedMessages(r.Messages, sender)
	if r.Page != nil {
		out = append(out, p.page(*r.Page, sender)...)
	}
	if r.Dialog != nil {
		out = append(out, p.dialog(*r.Dialog, sender)...)
	}
	return out
}

// senderFor keeps the default avatar and swaps the display name.
func (p *Presenter) senderFor(persona string) *messaging_api.Sender {
	if persona == "" {
		return p.sender
	}
	icon := ""
	if p.sender != nil {
		icon = p.sender.IconUrl
	}
	return lineutil.GetSender(persona, icon)
}

func (p *Presenter) page(v pagination.View, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	page := v.Page
	if page.Footer == "" && v.Multipage() {
		page.Footer = pagination.PageInfo{Index: v.Index, Total: v.Total}.Footer()
	}

	var nav *lineutil.FlexBox
	if v.Multipage() {
		c := v.Controls
		nav = lineutil.NewNavRow(
			lineutil.NavControl{Label: labelFirst, Data: bot.PagePostback(v.SessionID, pagination.NavFirst), Enabled: c.First},
			lineutil.NavControl{Label: labelPrev, Data: bot.PagePostback(v.SessionID, pagination.NavPrev), Enabled: c.Prev},
			lineutil.NavControl{Label: labelNext, Data: bot.PagePostback(v.SessionID, pagination.NavNext), Enabled: c.Next},
			lineutil.NavControl{Label: labelLast, Data: bot.PagePostback(v.SessionID, pagination.NavLast), Enabled: c.Last},
		)
	}
	var del *lineutil.FlexBox
	if v.Controls.Delete {
		del = lineutil.NewNavRow(lineutil.NavControl{Label: labelDelete, Data: bot.PageDeletePostback(v.SessionID), Enabled: true})
	}
	return lineutil.NewRenderedMessage(page, lineutil.NewButtonFooter(nav, del), sender)
}

func (p *Presenter) dialog(v dialog.View, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	if v.Kind != session.KindSelection {
		footer := lineutil.NewConfirmRow(
			bot.DialogPostback(v.SessionID, dialog.ActionConfirm),
			bot.DialogPostback(v.SessionID, dialog.ActionCancel),
		)
		return lineutil.NewRenderedMessage(v.Prompt, footer, sender)
	}

	options := make([]lineutil.OptionButton, len(v.Options))
	for i, o := range v.Options {
		options[i] = lineutil.OptionButton{Label: o.Label, Data: bot.SelectPostback(v.SessionID, i)}
	}
	footers := lineutil.NewOptionFooters(options)
	if len(footers) == 0 {
		return lineutil.NewRenderedMessage(v.Prompt, nil, sender)
	}

	bubbles := make([]messaging_api.FlexBubble, len(footers))
	for i, footer := range footers {
		prompt := v.Prompt
		if i > 0 {
			prompt = render.Message{Title: v.Prompt.Title, Body: "Mais opções", Status: v.Prompt.Status, Color: v.Prompt.Color}
		}
		bubbles[i] = lineutil.NewMessageBubble(prompt, footer)
	}
	return lineutil.BuildCarouselMessages(lineutil.AltText(v.Prompt), bubbles, sender)
}
