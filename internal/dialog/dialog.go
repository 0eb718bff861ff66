// Package dialog implements confirmation and single-selection dialogs on
// top of the session registry. Each dialog produces exactly one outcome.
package dialog

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
)

// MaxOptions is the largest selection list a dialog accepts; extra options
// are dropped.
const MaxOptions = 25

// Outcome is the terminal result of a dialog.
type Outcome int

const (
	Confirmed Outcome = iota + 1
	Cancelled
	Selected
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case Selected:
		return "selected"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Continuation names a registered callback plus the immutable context it
// was created with. It is stored in the session instead of a closure.
type Continuation struct {
	Name string
	Args map[string]string
}

// Option is one entry of a selection dialog.
type Option struct {
	Label       string
	Value       string
	Description string
}

// Result is handed to a continuation callback.
type Result struct {
	Outcome   Outcome
	SessionID string
	OwnerID   string
	ActorID   string
	Index     int    // selected option index, Selected only
	Option    Option // selected option, Selected only
	Args      map[string]string
}

// Value returns the selected option value.
func (r Result) Value() string {
	return r.Option.Value
}

// Reply is what a continuation sends back to the actor. Next, when set, is
// a follow-up dialog shown after Messages.
type Reply struct {
	Messages []render.Message
	Next     *View
	Persona  string
}

// Messages wraps plain messages in a Reply.
func Messages(msgs ...render.Message) Reply {
	return Reply{Messages: msgs}
}

// Callback runs a dialog's continuation.
type Callback func(ctx context.Context, res Result) (Reply, error)

// ActionKind is the user interaction on a dialog.
type ActionKind int

const (
	ActionConfirm ActionKind = iota + 1
	ActionCancel
	ActionSelect
)

func (k ActionKind) String() string {
	switch k {
	case ActionConfirm:
		return "confirm"
	case ActionCancel:
		return "cancel"
	case ActionSelect:
		return "select"
	default:
		return "unknown"
	}
}

// ParseActionKind is the inverse of ActionKind.String.
func ParseActionKind(s string) (ActionKind, bool) {
	switch s {
	case "confirm":
		return ActionConfirm, true
	case "cancel":
		return ActionCancel, true
	case "select":
		return ActionSelect, true
	default:
		return 0, false
	}
}

// Action is an interaction event on a dialog.
type Action struct {
	Kind  ActionKind
	Index int
}

// View is what the presentation layer renders for a new dialog.
type View struct {
	SessionID string
	Kind      session.Kind
	Prompt    render.Message
	Options   []Option
}

type confirmState struct {
	prompt    render.Message
	onConfirm Continuation
	onCancel  Continuation
}

type selectState struct {
	prompt   render.Message
	options  []Option
	onSelect Continuation
}

// Engine creates and resolves dialogs.
type Engine struct {
	registry *session.Registry

	mu        sync.RWMutex
	handlers  map[string]Callback
	onTimeout func(Result)
}

// NewEngine creates an engine and subscribes to registry expirations so
// timed-out dialogs are reported.
func NewEngine(registry *session.Registry) *Engine {
	e := &Engine{
		registry: registry,
		handlers: make(map[string]Callback),
	}
	registry.OnEnd(e.sessionEnded)
	return e
}

// Handle registers the callback for a continuation name. Registering the
// same name twice replaces the callback.
func (e *Engine) Handle(name string, cb Callback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = cb
}

// OnTimeout sets an observer notified when a dialog expires unresolved.
func (e *Engine) OnTimeout(fn func(Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTimeout = fn
}

// CreateConfirmation opens a yes/no dialog owned by ownerID.
func (e *Engine) CreateConfirmation(ownerID string, prompt render.Message, onConfirm, onCancel Continuation, ttl time.Duration) (View, error) {
	if err := e.checkRegistered(onConfirm, onCancel); err != nil {
		return View{}, err
	}
	st := confirmState{
		prompt:    prompt,
		onConfirm: freeze(onConfirm),
		onCancel:  freeze(onCancel),
	}
	id := e.registry.Create(session.KindConfirmation, ownerID, st, ttl)
	return View{SessionID: id, Kind: session.KindConfirmation, Prompt: prompt}, nil
}

// CreateSelection opens a single-choice dialog. At most MaxOptions options
// are kept; an empty list is a validation error.
func (e *Engine) CreateSelection(ownerID string, prompt render.Message, options []Option, onSelect Continuation, ttl time.Duration) (View, error) {
	if len(options) == 0 {
		return View{}, domerrors.NewValidationError("options", "Não há opções disponíveis.")
	}
	if err := e.checkRegistered(onSelect); err != nil {
		return View{}, err
	}
	if len(options) > MaxOptions {
		options = options[:MaxOptions]
	}
	options = append([]Option(nil), options...)

	st := selectState{prompt: prompt, options: options, onSelect: freeze(onSelect)}
	id := e.registry.Create(session.KindSelection, ownerID, st, ttl)
	return View{SessionID: id, Kind: session.KindSelection, Prompt: prompt, Options: options}, nil
}

// Resolve applies action to the dialog. The session is removed atomically
// with the decision, so the continuation runs at most once; later
// interactions get ErrAlreadyResolved, or ErrExpired after the timeout.
// A foreign actor gets ErrForbidden and nothing changes.
func (e *Engine) Resolve(ctx context.Context, sessionID, actorID string, action Action) (Reply, error) {
	var (
		res  Result
		cont Continuation
	)

	sess, err := e.registry.Take(sessionID, actorID, func(s *session.Session) error {
		switch st := s.State.(type) {
		case confirmState:
			switch action.Kind {
			case ActionConfirm:
				res.Outcome, cont = Confirmed, st.onConfirm
			case ActionCancel:
				res.Outcome, cont = Cancelled, st.onCancel
			default:
				return domerrors.NewValidationError("action", "Ação inválida para esta confirmação.")
			}
		case selectState:
			switch action.Kind {
			case ActionSelect:
				if action.Index < 0 || action.Index >= len(st.options) {
					return domerrors.NewValidationError("index", "Opção inválida.")
				}
				res.Outcome, cont = Selected, st.onSelect
				res.Index, res.Option = action.Index, st.options[action.Index]
			case ActionCancel:
				res.Outcome = Cancelled
			default:
				return domerrors.NewValidationError("action", "Ação inválida para esta seleção.")
			}
		default:
			return fmt.Errorf("session %s is not a dialog: %w", s.ID, domerrors.ErrNotFound)
		}
		return nil
	}, session.ReasonResolved)
	if err != nil {
		return Reply{}, err
	}

	res.SessionID = sess.ID
	res.OwnerID = sess.OwnerID
	res.ActorID = actorID
	res.Args = cont.Args

	if cont.Name == "" {
		return Messages(render.Dismissed()), nil
	}
	cb := e.handler(cont.Name)
	if cb == nil {
		return Reply{}, fmt.Errorf("dialog continuation %q is not registered", cont.Name)
	}
	return cb(ctx, res)
}

func (e *Engine) sessionEnded(s session.Session, reason session.EndReason) {
	if reason != session.ReasonExpired {
		return
	}
	if s.Kind != session.KindConfirmation && s.Kind != session.KindSelection {
		return
	}

	e.mu.RLock()
	fn := e.onTimeout
	e.mu.RUnlock()
	if fn == nil {
		return
	}

	res := Result{Outcome: TimedOut, SessionID: s.ID, OwnerID: s.OwnerID}
	switch st := s.State.(type) {
	case confirmState:
		res.Args = st.onConfirm.Args
	case selectState:
		res.Args = st.onSelect.Args
	}
	fn(res)
}

func (e *Engine) handler(name string) Callback {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handlers[name]
}

// checkRegistered rejects continuations whose name has no handler. An
// empty name means "just dismiss".
func (e *Engine) checkRegistered(conts ...Continuation) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range conts {
		if c.Name == "" {
			continue
		}
		if _, ok := e.handlers[c.Name]; !ok {
			return fmt.Errorf("dialog continuation %q is not registered", c.Name)
		}
	}
	return nil
}

func freeze(c Continuation) Continuation {
	return Continuation{Name: c.Name, Args: maps.Clone(c.Args)}
}
