package bot

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
)

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type processorFixture struct {
	proc    *Processor
	router  *Router
	pages   *pagination.Engine
	dialogs *dialog.Engine
	seen    []*Invocation
}

func newProcessorFixture(t *testing.T, limiter Limiter) *processorFixture {
	t.Helper()
	reg := session.NewRegistry(session.Options{})
	t.Cleanup(reg.Stop)

	f := &processorFixture{
		router:  newTestRouter(),
		pages:   pagination.NewEngine(reg),
		dialogs: dialog.NewEngine(reg),
	}
	f.router.Register("coins", nil, func(ctx context.Context, inv *Invocation) error {
		f.seen = append(f.seen, inv)
		return inv.ReplyMessages(ctx, render.Success("🪙", "ok"))
	})
	f.router.Register("desafiar", ArgSpec{{Name: "usuario", Kind: ArgUser}, {Name: "descrição", Kind: ArgText, Optional: true}},
		func(ctx context.Context, inv *Invocation) error {
			f.seen = append(f.seen, inv)
			return inv.ReplyMessages(ctx, render.Info("desafio", ""))
		})

	f.proc = NewProcessor(ProcessorConfig{
		Router:      f.router,
		Pages:       f.pages,
		Dialogs:     f.dialogs,
		UserLimiter: limiter,
		Logger:      logger.NewWithWriter("error", io.Discard),
		BotConfig:   &config.BotConfig{WebhookTimeout: 5 * time.Second},
		Welcome:     []render.Message{render.Info("Bem-vindo", "")},
	})
	return f
}

func textEvent(src webhook.SourceInterface, text string, mention *webhook.Mention) webhook.MessageEvent {
	return webhook.MessageEvent{
		Source:  src,
		Message: webhook.TextMessageContent{Text: text, Mention: mention},
	}
}

func postbackEvent(userID, data string) webhook.PostbackEvent {
	return webhook.PostbackEvent{
		Source:   webhook.UserSource{UserId: userID},
		Postback: &webhook.PostbackContent{Data: data},
	}
}

func TestProcessMessage_CommandForms(t *testing.T) {
	tests := []struct {
		name    string
		src     webhook.SourceInterface
		text    string
		mention *webhook.Mention
		want    bool
	}{
		{"slash in 1:1", webhook.UserSource{UserId: "U1"}, "/coins", nil, true},
		{"bang in group", webhook.GroupSource{GroupId: "G1", UserId: "U1"}, "!coins", nil, true},
		{"bare in 1:1", webhook.UserSource{UserId: "U1"}, "coins", nil, true},
		{"bare in group ignored", webhook.GroupSource{GroupId: "G1", UserId: "U1"}, "coins", nil, false},
		{
			"bare in group with bot mention",
			webhook.GroupSource{GroupId: "G1", UserId: "U1"},
			"@Buteco coins",
			&webhook.Mention{Mentionees: []webhook.MentioneeInterface{
				webhook.UserMentionee{Index: 0, Length: 7, IsSelf: true},
			}},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProcessorFixture(t, nil)
			out := &captureResponder{}
			f.proc.ProcessMessage(context.Background(), textEvent(tt.src, tt.text, tt.mention), out)
			if tt.want {
				require.Len(t, f.seen, 1)
				assert.Equal(t, "U1", f.seen[0].ActorID)
				assert.Len(t, out.responses(), 1)
			} else {
				assert.Empty(t, f.seen)
				assert.Empty(t, out.responses())
			}
		})
	}
}

func TestProcessMessage_MentionBecomesUserArg(t *testing.T) {
	f := newProcessorFixture(t, nil)
	out := &captureResponder{}
	text := "/desafiar @Ana quem beber mais"
	mention := &webhook.Mention{Mentionees: []webhook.MentioneeInterface{
		webhook.UserMentionee{Index: 10, Length: 4, UserId: "U-ana"},
	}}

	f.proc.ProcessMessage(context.Background(), textEvent(webhook.GroupSource{GroupId: "G1", UserId: "U1"}, text, mention), out)

	require.Len(t, f.seen, 1)
	id, display := f.seen[0].Args.User("usuario")
	assert.Equal(t, "U-ana", id)
	assert.Equal(t, "@Ana", display)
	assert.Equal(t, "quem beber mais", f.seen[0].Args.String("descrição"))
	assert.Equal(t, "G1", f.seen[0].ChatID)
}

func TestProcessMessage_RateLimited(t *testing.T) {
	f := newProcessorFixture(t, denyAll{})
	out := &captureResponder{}
	f.proc.ProcessMessage(context.Background(), textEvent(webhook.UserSource{UserId: "U1"}, "/coins", nil), out)

	assert.Empty(t, f.seen)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, render.MsgRateLimited, out.responses()[0].Messages[0].Body)
}

func TestProcessMessage_UnknownInPersonalChat(t *testing.T) {
	f := newProcessorFixture(t, nil)
	out := &captureResponder{}
	f.proc.ProcessMessage(context.Background(), textEvent(webhook.UserSource{UserId: "U1"}, "oi tudo bem", nil), out)

	require.Len(t, out.responses(), 1)
	assert.Equal(t, render.MsgUnknownCommand, out.responses()[0].Messages[0].Body)
}

func TestProcessMessage_TooLong(t *testing.T) {
	long := "/coins " + strings.Repeat("a", maxTextLength)
	tests := []struct {
		name      string
		src       webhook.SourceInterface
		text      string
		wantReply bool
	}{
		{"command in 1:1", webhook.UserSource{UserId: "U1"}, long, true},
		{"command in group", webhook.GroupSource{GroupId: "G1", UserId: "U1"}, long, true},
		{"chatter in group", webhook.GroupSource{GroupId: "G1", UserId: "U1"}, strings.Repeat("a", maxTextLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProcessorFixture(t, nil)
			out := &captureResponder{}
			f.proc.ProcessMessage(context.Background(), textEvent(tt.src, tt.text, nil), out)

			assert.Empty(t, f.seen)
			if !tt.wantReply {
				assert.Empty(t, out.responses())
				return
			}
			require.Len(t, out.responses(), 1)
			msg := out.responses()[0].Messages[0]
			assert.Equal(t, render.StatusError, msg.Status)
			assert.Equal(t, "Mensagem longa demais. O limite é de 20000 caracteres.", msg.Body)
		})
	}
}

func TestProcessPostback_Pagination(t *testing.T) {
	f := newProcessorFixture(t, nil)
	view := f.pages.Open("U1", pagination.NewPageSet(render.Info("1", ""), render.Info("2", "")), 0)

	out := &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U1", PagePostback(view.SessionID, pagination.NavNext)), out)
	require.Len(t, out.responses(), 1)
	require.NotNil(t, out.responses()[0].Page)
	assert.Equal(t, 1, out.responses()[0].Page.Index)

	out = &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U2", PagePostback(view.SessionID, pagination.NavFirst)), out)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, render.MsgForbidden, out.responses()[0].Messages[0].Body)

	out = &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U1", PageDeletePostback(view.SessionID)), out)
	require.Len(t, out.responses(), 1)
	assert.True(t, out.responses()[0].Messages[0].Dismiss)

	out = &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U1", PagePostback(view.SessionID, pagination.NavNext)), out)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, render.StatusInfo, out.responses()[0].Messages[0].Status)
}

func TestProcessPostback_Dialog(t *testing.T) {
	f := newProcessorFixture(t, nil)
	f.dialogs.Handle("delete", func(context.Context, dialog.Result) (dialog.Reply, error) {
		return dialog.Messages(render.Success("", "conta apagada")), nil
	})
	view, err := f.dialogs.CreateConfirmation("U1", render.Warning("Apagar?", ""), dialog.Continuation{Name: "delete"}, dialog.Continuation{}, 0)
	require.NoError(t, err)

	out := &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U1", DialogPostback(view.SessionID, dialog.ActionConfirm)), out)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, "conta apagada", out.responses()[0].Messages[0].Body)

	out = &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U1", DialogPostback(view.SessionID, dialog.ActionConfirm)), out)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, render.MsgAlreadyResolved, out.responses()[0].Messages[0].Body)
}

func TestProcessPostback_Invalid(t *testing.T) {
	f := newProcessorFixture(t, nil)
	out := &captureResponder{}
	f.proc.ProcessPostback(context.Background(), postbackEvent("U1", "garbage"), out)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, render.MsgSessionNotFound, out.responses()[0].Messages[0].Body)
}

func TestProcessFollow_SendsWelcome(t *testing.T) {
	f := newProcessorFixture(t, nil)
	out := &captureResponder{}
	f.proc.ProcessFollow(context.Background(), webhook.FollowEvent{Source: webhook.UserSource{UserId: "U1"}}, out)
	require.Len(t, out.responses(), 1)
	assert.Equal(t, "Bem-vindo", out.responses()[0].Messages[0].Title)
}

func TestTokenizeMessage(t *testing.T) {
	text := "@Buteco desafiar @José Silva agora"
	mention := &webhook.Mention{Mentionees: []webhook.MentioneeInterface{
		webhook.UserMentionee{Index: 0, Length: 7, IsSelf: true},
		webhook.UserMentionee{Index: 17, Length: 11, UserId: "U-jose"},
	}}

	tokens := tokenizeMessage(text, mention)
	assert.Equal(t, []Token{
		{Text: "desafiar"},
		{Text: "@José Silva", UserID: "U-jose"},
		{Text: "agora"},
	}, tokens)
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, Source{UserID: "U1", ChatID: "U1", Personal: true}, SourceOf(webhook.UserSource{UserId: "U1"}))
	assert.Equal(t, Source{UserID: "U1", ChatID: "G1"}, SourceOf(webhook.GroupSource{GroupId: "G1", UserId: "U1"}))
	assert.Equal(t, Source{UserID: "U1", ChatID: "R1"}, SourceOf(webhook.RoomSource{RoomId: "R1", UserId: "U1"}))
	assert.Equal(t, Source{}, SourceOf(nil))
}

func TestAllowList(t *testing.T) {
	admins := AllowList{"U-admin"}
	assert.True(t, admins.IsAdmin(context.Background(), "U-admin"))
	assert.False(t, admins.IsAdmin(context.Background(), "U1"))
	assert.False(t, admins.IsAdmin(context.Background(), ""))
}
