// Package session tracks live interactive UI instances (paginated views,
// confirmations, selections) in memory, with idle-timeout eviction.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
)

// Kind identifies what a session drives.
type Kind int

const (
	KindPagination Kind = iota + 1
	KindConfirmation
	KindSelection
)

func (k Kind) String() string {
	switch k {
	case KindPagination:
		return "pagination"
	case KindConfirmation:
		return "confirmation"
	case KindSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// EndReason records why a session left the registry.
type EndReason int

const (
	ReasonResolved EndReason = iota + 1 // a dialog produced its outcome
	ReasonDeleted                       // the owner closed the view
	ReasonExpired                       // idle timeout
	ReasonShutdown                      // process shutdown
)

func (r EndReason) String() string {
	switch r {
	case ReasonResolved:
		return "resolved"
	case ReasonDeleted:
		return "deleted"
	case ReasonExpired:
		return "expired"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// err maps the reason to the error a late interaction receives.
func (r EndReason) err() error {
	switch r {
	case ReasonResolved, ReasonDeleted:
		return domerrors.ErrAlreadyResolved
	default:
		return domerrors.ErrExpired
	}
}

// OwnerAny lets every actor interact with a session.
const OwnerAny = ""

// Session is a snapshot of one live interactive instance.
type Session struct {
	ID        string
	Kind      Kind
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
	TTL       time.Duration
	State     any
}

// CanAct reports whether actorID may interact with the session.
func (s Session) CanAct(actorID string) bool {
	return s.OwnerID == OwnerAny || s.OwnerID == actorID
}

// Options configures a Registry.
type Options struct {
	DefaultTTL         time.Duration // used when Create gets ttl <= 0 (default 180s)
	SweepInterval      time.Duration // 0 disables the background sweep
	TombstoneRetention time.Duration // how long ended IDs are remembered (default 10m)
	Metrics            *metrics.Metrics
	Now                func() time.Time
}

// Registry is the process-wide session table. Mutations of one session
// are serialized by a per-session mutex; different sessions never contend
// beyond the short map lookup.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	tombstones map[string]tombstone
	listeners  []func(Session, EndReason)

	opts     Options
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type entry struct {
	mu      sync.Mutex
	session Session
	ended   bool
	reason  EndReason
}

type tombstone struct {
	reason EndReason
	until  time.Time
}

// NewRegistry creates a registry and starts its sweep loop when
// opts.SweepInterval > 0. Call Stop to release it.
func NewRegistry(opts Options) *Registry {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 180 * time.Second
	}
	if opts.TombstoneRetention <= 0 {
		opts.TombstoneRetention = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Registry{
		entries:    make(map[string]*entry),
		tombstones: make(map[string]tombstone),
		opts:       opts,
		stopCh:     make(chan struct{}),
	}
	if opts.SweepInterval > 0 {
		r.wg.Add(1)
		go r.sweepLoop()
	}
	return r
}

// DefaultTTL returns the idle timeout applied when callers pass ttl <= 0.
func (r *Registry) DefaultTTL() time.Duration {
	return r.opts.DefaultTTL
}

// OnEnd registers fn to be called after a session leaves the registry.
// fn runs outside registry locks.
func (r *Registry) OnEnd(fn func(Session, EndReason)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Create registers a new session and returns its ID.
func (r *Registry) Create(kind Kind, ownerID string, state any, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = r.opts.DefaultTTL
	}
	now := r.opts.Now()
	id := uuid.NewString()

	r.mu.Lock()
	r.entries[id] = &entry{session: Session{
		ID:        id,
		Kind:      kind,
		OwnerID:   ownerID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		TTL:       ttl,
		State:     state,
	}}
	r.mu.Unlock()

	r.opts.Metrics.SessionOpened(kind.String())
	return id
}

// Get returns a snapshot of the session.
// Errors: ErrNotFound, ErrExpired, ErrAlreadyResolved.
func (r *Registry) Get(id string) (Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	if err := r.checkLive(id, e); err != nil {
		e.mu.Unlock()
		r.finishExpired(id, e)
		return Session{}, err
	}
	s := e.session
	e.mu.Unlock()
	return s, nil
}

// Update runs fn on the session while holding its lock. A non-owner actor
// gets ErrForbidden and fn is not called. When fn returns an error the
// session is left untouched by the registry (fn must not mutate before
// failing). A successful update restarts the idle timeout.
func (r *Registry) Update(id, actorID string, fn func(*Session) error) (Session, error) {
	return r.mutate(id, actorID, fn, 0)
}

// Take is Update followed by removal with reason, as one atomic step: no
// other event can observe the session between fn succeeding and removal.
func (r *Registry) Take(id, actorID string, fn func(*Session) error, reason EndReason) (Session, error) {
	return r.mutate(id, actorID, fn, reason)
}

func (r *Registry) mutate(id, actorID string, fn func(*Session) error, endWith EndReason) (Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	if err := r.checkLive(id, e); err != nil {
		e.mu.Unlock()
		r.finishExpired(id, e)
		return Session{}, err
	}
	if !e.session.CanAct(actorID) {
		e.mu.Unlock()
		return Session{}, fmt.Errorf("session %s: %w", id, domerrors.ErrForbidden)
	}
	if fn != nil {
		if err := fn(&e.session); err != nil {
			e.mu.Unlock()
			return Session{}, err
		}
	}
	if endWith == 0 {
		e.session.ExpiresAt = r.opts.Now().Add(e.session.TTL)
		s := e.session
		e.mu.Unlock()
		return s, nil
	}
	e.ended, e.reason = true, endWith
	s := e.session
	e.mu.Unlock()

	r.remove(id, e, endWith)
	return s, nil
}

// Destroy removes the session. Returns false when it was already gone.
func (r *Registry) Destroy(id string, reason EndReason) bool {
	e, err := r.lookup(id)
	if err != nil {
		return false
	}
	e.mu.Lock()
	if e.ended {
		e.mu.Unlock()
		return false
	}
	e.ended, e.reason = true, reason
	e.mu.Unlock()

	r.remove(id, e, reason)
	return true
}

// Sweep removes every session past its expiry and prunes old tombstones.
// Returns the number of sessions expired.
func (r *Registry) Sweep() int {
	now := r.opts.Now()

	r.mu.RLock()
	candidates := make(map[string]*entry, len(r.entries))
	for id, e := range r.entries {
		candidates[id] = e
	}
	r.mu.RUnlock()

	expired := 0
	for id, e := range candidates {
		e.mu.Lock()
		if e.ended || !now.After(e.session.ExpiresAt) {
			e.mu.Unlock()
			continue
		}
		e.ended, e.reason = true, ReasonExpired
		e.mu.Unlock()
		r.remove(id, e, ReasonExpired)
		expired++
	}

	r.mu.Lock()
	for id, t := range r.tombstones {
		if now.After(t.until) {
			delete(r.tombstones, id)
		}
	}
	r.mu.Unlock()

	return expired
}

// Len returns the number of sessions currently in the table.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stop ends the sweep loop and destroys every live session with
// ReasonShutdown. Safe to call multiple times.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()

		r.mu.RLock()
		ids := make([]string, 0, len(r.entries))
		for id := range r.entries {
			ids = append(ids, id)
		}
		r.mu.RUnlock()

		for _, id := range ids {
			r.Destroy(id, ReasonShutdown)
		}
	})
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// lookup finds a live entry or returns the error for a missing ID.
func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	if t, ok := r.tombstones[id]; ok {
		return nil, fmt.Errorf("session %s: %w", id, t.reason.err())
	}
	return nil, fmt.Errorf("session %s: %w", id, domerrors.ErrNotFound)
}

// checkLive must be called with e.mu held. An expired session is marked
// ended here; the caller removes it via finishExpired after unlocking.
func (r *Registry) checkLive(id string, e *entry) error {
	if e.ended {
		return fmt.Errorf("session %s: %w", id, e.reason.err())
	}
	if r.opts.Now().After(e.session.ExpiresAt) {
		e.ended, e.reason = true, ReasonExpired
		return fmt.Errorf("session %s: %w", id, domerrors.ErrExpired)
	}
	return nil
}

// finishExpired removes an entry that checkLive just marked expired.
func (r *Registry) finishExpired(id string, e *entry) {
	e.mu.Lock()
	expired := e.ended && e.reason == ReasonExpired
	e.mu.Unlock()
	if expired {
		r.remove(id, e, ReasonExpired)
	}
}

// remove deletes the entry if it is still the one registered under id,
// leaves a tombstone, and notifies listeners. Must be called without e.mu.
func (r *Registry) remove(id string, e *entry, reason EndReason) {
	r.mu.Lock()
	current, ok := r.entries[id]
	if !ok || current != e {
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	r.tombstones[id] = tombstone{reason: reason, until: r.opts.Now().Add(r.opts.TombstoneRetention)}
	listeners := append([]func(Session, EndReason){}, r.listeners...)
	snapshot := e.session
	r.mu.Unlock()

	r.opts.Metrics.SessionEnded(snapshot.Kind.String(), reason.String())
	for _, fn := range listeners {
		fn(snapshot, reason)
	}
}
