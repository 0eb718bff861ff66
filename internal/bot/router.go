// Package bot routes chat commands and interactive postbacks to their
// handlers and guarantees each invocation is answered exactly once.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/ctxutil"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/stringutil"
)

// HandlerFunc runs a command. It answers through inv.Reply; returning an
// error without replying makes the router answer with the rendered error.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Command is a registered command.
type Command struct {
	Name    string
	Aliases []string
	Args    ArgSpec
	Handler HandlerFunc
}

// Usage returns the command's usage line.
func (c Command) Usage() string {
	return c.Args.Usage(c.Name)
}

// Invocation is one execution of a command or postback.
type Invocation struct {
	Command   string
	ActorID   string
	ActorName string
	ChatID    string
	Tokens    []Token
	Args      Args

	out *onceResponder
}

// NewInvocation creates an invocation answered through out.
func NewInvocation(command, actorID, chatID string, tokens []Token, out Responder) *Invocation {
	return &Invocation{
		Command: command,
		ActorID: actorID,
		ChatID:  chatID,
		Tokens:  tokens,
		out:     &onceResponder{out: out},
	}
}

// Reply sends the answer. Only the first call is delivered; later calls
// return ErrAlreadyReplied.
func (inv *Invocation) Reply(ctx context.Context, r Response) error {
	return inv.out.send(ctx, r)
}

// ReplyMessages is shorthand for Reply(ctx, Reply(msgs...)).
func (inv *Invocation) ReplyMessages(ctx context.Context, msgs ...render.Message) error {
	return inv.Reply(ctx, Reply(msgs...))
}

// Replied reports whether an answer was already sent.
func (inv *Invocation) Replied() bool {
	return inv.out.done()
}

// Module is a group of commands and, optionally, postback actions.
type Module interface {
	Name() string
	Register(r *Router)
}

// PostbackHandler is implemented by modules that own "module:action" postbacks.
type PostbackHandler interface {
	HandlePostback(ctx context.Context, inv *Invocation, pb PostbackData) error
}

// Router maps command names and aliases to handlers.
type Router struct {
	mu        sync.RWMutex
	commands  map[string]*Command
	names     []string
	postbacks map[string]PostbackHandler

	logger   *logger.Logger
	metrics  *metrics.Metrics
	reporter func(ctx context.Context, err error)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithErrorReporter sets a hook called for handler panics and unexpected
// errors, typically Sentry.
func WithErrorReporter(fn func(ctx context.Context, err error)) RouterOption {
	return func(r *Router) {
		r.reporter = fn
	}
}

// NewRouter creates an empty router.
func NewRouter(log *logger.Logger, m *metrics.Metrics, opts ...RouterOption) *Router {
	r := &Router{
		commands:  make(map[string]*Command),
		postbacks: make(map[string]PostbackHandler),
		logger:    log,
		metrics:   m,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a command under name and its aliases. Names are case
// insensitive. Registering a taken name panics: it is a wiring bug.
func (r *Router) Register(name string, spec ArgSpec, h HandlerFunc, aliases ...string) {
	for i, a := range spec {
		if a.Kind == ArgText && i != len(spec)-1 {
			panic(fmt.Sprintf("bot: command %q: text argument %q must be last", name, a.Name))
		}
	}

	cmd := &Command{Name: name, Aliases: aliases, Args: spec, Handler: h}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range append([]string{name}, aliases...) {
		key := stringutil.Fold(n)
		if _, dup := r.commands[key]; dup {
			panic(fmt.Sprintf("bot: command %q registered twice", n))
		}
		r.commands[key] = cmd
	}
	r.names = append(r.names, name)
}

// RegisterModule lets m register its commands and, when m implements
// PostbackHandler, routes "name:..." postbacks to it.
func (r *Router) RegisterModule(m Module) {
	m.Register(r)
	if ph, ok := m.(PostbackHandler); ok {
		r.mu.Lock()
		r.postbacks[m.Name()] = ph
		r.mu.Unlock()
	}
}

// Lookup returns the command registered under name or alias.
func (r *Router) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[stringutil.Fold(name)]
	return cmd, ok
}

// Commands returns the registered commands sorted by name.
func (r *Router) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, *r.commands[stringutil.Fold(n)])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch runs the command named by inv.Command. Argument errors are
// answered with the usage line; unknown commands with a help hint. Every
// path ends with exactly one answer.
func (r *Router) Dispatch(ctx context.Context, inv *Invocation) {
	cmd, ok := r.Lookup(inv.Command)
	if !ok {
		r.metrics.RecordCommand("unknown", "unknown")
		r.answer(ctx, inv, render.FromError(domerrors.ErrUnknownCommand))
		return
	}
	inv.Command = cmd.Name

	args, err := cmd.Args.Parse(inv.Tokens)
	if err != nil {
		r.metrics.RecordCommand(cmd.Name, "invalid_args")
		r.answer(ctx, inv, render.FromError(err).WithFooter("Uso: "+cmd.Usage()))
		return
	}
	inv.Args = args

	r.Run(ctx, inv, cmd.Handler)
}

// DispatchPostback routes a "module:action" postback to its module.
func (r *Router) DispatchPostback(ctx context.Context, inv *Invocation, pb PostbackData) {
	r.mu.RLock()
	ph, ok := r.postbacks[pb.Module]
	r.mu.RUnlock()
	if !ok {
		r.answer(ctx, inv, render.FromError(domerrors.ErrNotFound))
		return
	}
	r.Run(ctx, inv, func(ctx context.Context, inv *Invocation) error {
		return ph.HandlePostback(ctx, inv, pb)
	})
}

// Run executes fn under the exactly-once guarantee: a returned error, a
// panic or a missing reply all make the router answer on fn's behalf.
func (r *Router) Run(ctx context.Context, inv *Invocation, fn HandlerFunc) {
	ctx = ctxutil.WithCommand(ctx, inv.Command)
	start := time.Now()
	log := r.logger.WithField("command", inv.Command)

	err := r.call(ctx, inv, fn)
	status := "success"

	switch {
	case err != nil:
		status = "error"
		if isUnexpected(err) {
			log.WithError(err).ErrorContext(ctx, "Command failed")
			r.report(ctx, err)
		} else {
			log.WithError(err).DebugContext(ctx, "Command rejected")
		}
		if !inv.Replied() {
			r.answer(ctx, inv, render.FromError(err))
		}
	case !inv.Replied():
		status = "no_reply"
		log.WarnContext(ctx, "Command returned without replying")
		r.answer(ctx, inv, render.Error(render.TitleError, render.MsgUnexpected))
	}

	r.metrics.RecordCommand(inv.Command, status)
	log.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("status", status).
		DebugContext(ctx, "Command completed")
}

func (r *Router) call(ctx context.Context, inv *Invocation, fn HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("command", inv.Command).
				WithField("panic", rec).
				WithField("stack", string(debug.Stack())).
				ErrorContext(ctx, "Command panicked")
			err = fmt.Errorf("panic in command %s: %v", inv.Command, rec)
		}
	}()
	return fn(ctx, inv)
}

func (r *Router) answer(ctx context.Context, inv *Invocation, msg render.Message) {
	if err := inv.ReplyMessages(ctx, msg); err != nil && !domerrors.IsAlreadyReplied(err) {
		r.logger.WithError(err).WarnContext(ctx, "Failed to deliver reply")
	}
}

func (r *Router) report(ctx context.Context, err error) {
	if r.reporter != nil {
		r.reporter(ctx, err)
	}
}

// isUnexpected separates failures worth an error log from user mistakes
// and session races.
func isUnexpected(err error) bool {
	if domerrors.IsInvalidInput(err) || domerrors.IsForbidden(err) ||
		domerrors.IsExpired(err) || domerrors.IsAlreadyResolved(err) ||
		domerrors.IsNotFound(err) || domerrors.IsRateLimitExceeded(err) {
		return false
	}
	if be, ok := domerrors.AsBackendError(err); ok && be.IsClientError() {
		return false
	}
	return true
}
