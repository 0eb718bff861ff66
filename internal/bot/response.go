package bot

import (
	"context"
	"sync"

	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Response is one answer to an invocation: messages, optionally followed
// by a paginated view or an open dialog.
type Response struct {
	Messages []render.Message
	Page     *pagination.View
	Dialog   *dialog.View
	// Persona, when set, is the author name shown on the messages instead
	// of the bot's default.
	Persona string
}

// As signs the response with a persona.
func (r Response) As(persona string) Response {
	r.Persona = persona
	return r
}

// Reply builds a response made of plain messages.
func Reply(msgs ...render.Message) Response {
	return Response{Messages: msgs}
}

// PageResponse shows a paginated view.
func PageResponse(v pagination.View) Response {
	return Response{Page: &v}
}

// DialogResponse shows an open dialog.
func DialogResponse(v dialog.View) Response {
	return Response{Dialog: &v}
}

// FromDialogReply converts the outcome of a dialog continuation.
func FromDialogReply(r dialog.Reply) Response {
	return Response{Messages: r.Messages, Dialog: r.Next, Persona: r.Persona}
}

// Empty reports whether the response carries nothing to send.
func (r Response) Empty() bool {
	return len(r.Messages) == 0 && r.Page == nil && r.Dialog == nil
}

// Responder delivers responses to the chat platform.
type Responder interface {
	Send(ctx context.Context, r Response) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, r Response) error

// Send calls f.
func (f ResponderFunc) Send(ctx context.Context, r Response) error {
	return f(ctx, r)
}

// onceResponder lets exactly one response through. A send that fails still
// counts as the answer.
type onceResponder struct {
	mu      sync.Mutex
	replied bool
	out     Responder
}

func (o *onceResponder) send(ctx context.Context, r Response) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.replied {
		return domerrors.ErrAlreadyReplied
	}
	o.replied = true
	return o.out.Send(ctx, r)
}

func (o *onceResponder) done() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.replied
}
