package dialog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) callback(body string) Callback {
	return func(_ context.Context, res Result) (Reply, error) {
		r.mu.Lock()
		r.results = append(r.results, res)
		r.mu.Unlock()
		return Messages(render.Success("ok", body)), nil
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func newEngine(t *testing.T, opts session.Options) (*Engine, *session.Registry) {
	t.Helper()
	reg := session.NewRegistry(opts)
	t.Cleanup(reg.Stop)
	return NewEngine(reg), reg
}

func TestConfirmation_Confirm(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	rec := &recorder{}
	e.Handle("delete.confirm", rec.callback("conta apagada"))
	e.Handle("delete.cancel", rec.callback("cancelado"))

	v, err := e.CreateConfirmation("U1", render.Warning("Apagar?", ""),
		Continuation{Name: "delete.confirm", Args: map[string]string{"client_id": "7"}},
		Continuation{Name: "delete.cancel"}, 0)
	require.NoError(t, err)
	assert.Equal(t, session.KindConfirmation, v.Kind)

	reply, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionConfirm})
	require.NoError(t, err)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "conta apagada", reply.Messages[0].Body)

	require.Equal(t, 1, rec.count())
	res := rec.results[0]
	assert.Equal(t, Confirmed, res.Outcome)
	assert.Equal(t, "7", res.Args["client_id"])
	assert.Equal(t, "U1", res.ActorID)
}

func TestConfirmation_Cancel(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	rec := &recorder{}
	e.Handle("yes", rec.callback("sim"))
	e.Handle("no", rec.callback("não"))

	v, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "yes"}, Continuation{Name: "no"}, 0)
	require.NoError(t, err)

	reply, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionCancel})
	require.NoError(t, err)
	assert.Equal(t, "não", reply.Messages[0].Body)
	assert.Equal(t, Cancelled, rec.results[0].Outcome)
}

func TestConfirmation_EmptyCancelDismisses(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	e.Handle("yes", (&recorder{}).callback("sim"))

	v, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "yes"}, Continuation{}, 0)
	require.NoError(t, err)

	reply, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionCancel})
	require.NoError(t, err)
	require.Len(t, reply.Messages, 1)
	assert.True(t, reply.Messages[0].Dismiss)
}

func TestConfirmation_RapidClicksFireOnce(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	var fired atomic.Int32
	e.Handle("yes", func(context.Context, Result) (Reply, error) {
		fired.Add(1)
		return Reply{}, nil
	})

	v, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "yes"}, Continuation{}, 0)
	require.NoError(t, err)

	var already atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionConfirm})
			if domerrors.IsAlreadyResolved(err) {
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, fired.Load())
	assert.EqualValues(t, 49, already.Load())
}

func TestConfirmation_ForeignActor(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	rec := &recorder{}
	e.Handle("yes", rec.callback("sim"))

	v, err := e.CreateConfirmation("challenged", render.Message{}, Continuation{Name: "yes"}, Continuation{}, 0)
	require.NoError(t, err)

	_, err = e.Resolve(context.Background(), v.SessionID, "someone-else", Action{Kind: ActionConfirm})
	assert.True(t, domerrors.IsForbidden(err))
	assert.Zero(t, rec.count())

	_, err = e.Resolve(context.Background(), v.SessionID, "challenged", Action{Kind: ActionConfirm})
	assert.NoError(t, err, "owner can still resolve after a foreign click")
}

func TestConfirmation_WrongAction(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	e.Handle("yes", (&recorder{}).callback("sim"))
	v, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "yes"}, Continuation{}, 0)
	require.NoError(t, err)

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionSelect, Index: 0})
	assert.True(t, domerrors.IsInvalidInput(err))

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionConfirm})
	assert.NoError(t, err, "an invalid action does not consume the dialog")
}

func TestCreate_UnregisteredContinuation(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	_, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "missing"}, Continuation{}, 0)
	assert.Error(t, err)
}

func TestSelection(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	rec := &recorder{}
	e.Handle("bet.amount", rec.callback("aposta feita"))

	opts := []Option{{Label: "10", Value: "10"}, {Label: "50", Value: "50"}, {Label: "100", Value: "100"}}
	v, err := e.CreateSelection("U1", render.Info("Quanto?", ""), opts, Continuation{Name: "bet.amount", Args: map[string]string{"event": "3"}}, 0)
	require.NoError(t, err)
	assert.Len(t, v.Options, 3)

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionSelect, Index: 5})
	assert.True(t, domerrors.IsInvalidInput(err))

	reply, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionSelect, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "aposta feita", reply.Messages[0].Body)

	res := rec.results[0]
	assert.Equal(t, Selected, res.Outcome)
	assert.Equal(t, "50", res.Value())
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, "3", res.Args["event"])

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionSelect, Index: 0})
	assert.True(t, domerrors.IsAlreadyResolved(err))
}

func TestSelection_CapsAndValidates(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	e.Handle("pick", (&recorder{}).callback(""))

	_, err := e.CreateSelection("U1", render.Message{}, nil, Continuation{Name: "pick"}, 0)
	assert.True(t, domerrors.IsInvalidInput(err))

	many := make([]Option, 40)
	for i := range many {
		many[i] = Option{Label: fmt.Sprint(i), Value: fmt.Sprint(i)}
	}
	v, err := e.CreateSelection("U1", render.Message{}, many, Continuation{Name: "pick"}, 0)
	require.NoError(t, err)
	assert.Len(t, v.Options, MaxOptions)

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionSelect, Index: MaxOptions})
	assert.True(t, domerrors.IsInvalidInput(err))
}

func TestSelection_Cancel(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	rec := &recorder{}
	e.Handle("pick", rec.callback(""))

	v, err := e.CreateSelection("U1", render.Message{}, []Option{{Label: "a", Value: "a"}}, Continuation{Name: "pick"}, 0)
	require.NoError(t, err)

	reply, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionCancel})
	require.NoError(t, err)
	assert.True(t, reply.Messages[0].Dismiss)
	assert.Zero(t, rec.count())
}

func TestContinuationArgsAreCopied(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	rec := &recorder{}
	e.Handle("yes", rec.callback(""))

	args := map[string]string{"k": "original"}
	v, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "yes", Args: args}, Continuation{}, 0)
	require.NoError(t, err)
	args["k"] = "mutated"

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionConfirm})
	require.NoError(t, err)
	assert.Equal(t, "original", rec.results[0].Args["k"])
}

func TestTimeout(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	e, reg := newEngine(t, session.Options{DefaultTTL: time.Minute, Now: clock})
	rec := &recorder{}
	e.Handle("yes", rec.callback(""))

	var timedOut []Result
	e.OnTimeout(func(r Result) { timedOut = append(timedOut, r) })

	v, err := e.CreateConfirmation("U1", render.Message{}, Continuation{Name: "yes", Args: map[string]string{"a": "b"}}, Continuation{}, 0)
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	assert.Equal(t, 1, reg.Sweep())

	require.Len(t, timedOut, 1)
	assert.Equal(t, TimedOut, timedOut[0].Outcome)
	assert.Equal(t, "b", timedOut[0].Args["a"])

	_, err = e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionConfirm})
	assert.True(t, domerrors.IsExpired(err))
	assert.Zero(t, rec.count(), "a late click never fires the continuation")
}

func TestParseActionKind(t *testing.T) {
	for _, k := range []ActionKind{ActionConfirm, ActionCancel, ActionSelect} {
		got, ok := ParseActionKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseActionKind("nope")
	assert.False(t, ok)
}

func TestContinuationCanChainDialog(t *testing.T) {
	e, _ := newEngine(t, session.Options{})
	e.Handle("amount", func(context.Context, Result) (Reply, error) {
		return Messages(render.Success("", "feito")), nil
	})
	e.Handle("option", func(_ context.Context, res Result) (Reply, error) {
		next, err := e.CreateSelection(res.ActorID, render.Info("Valor", ""),
			[]Option{{Label: "10", Value: "10"}}, Continuation{Name: "amount", Args: map[string]string{"option": res.Value()}}, 0)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Next: &next}, nil
	})

	v, err := e.CreateSelection("U1", render.Info("Opção", ""),
		[]Option{{Label: "A", Value: "1"}, {Label: "B", Value: "2"}}, Continuation{Name: "option"}, 0)
	require.NoError(t, err)

	reply, err := e.Resolve(context.Background(), v.SessionID, "U1", Action{Kind: ActionSelect, Index: 1})
	require.NoError(t, err)
	require.NotNil(t, reply.Next)
	assert.Equal(t, session.KindSelection, reply.Next.Kind)

	final, err := e.Resolve(context.Background(), reply.Next.SessionID, "U1", Action{Kind: ActionSelect, Index: 0})
	require.NoError(t, err)
	require.Len(t, final.Messages, 1)
	assert.Equal(t, "feito", final.Messages[0].Body)
}
