// Package pagination splits item lists into fixed-size pages and drives
// first/prev/next/last navigation over sessions in the registry.
package pagination

import (
	"fmt"
	"time"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
)

// Nav is a navigation control.
type Nav int

const (
	NavFirst Nav = iota + 1
	NavPrev
	NavNext
	NavLast
)

func (n Nav) String() string {
	switch n {
	case NavFirst:
		return "first"
	case NavPrev:
		return "prev"
	case NavNext:
		return "next"
	case NavLast:
		return "last"
	default:
		return "unknown"
	}
}

// ParseNav is the inverse of Nav.String.
func ParseNav(s string) (Nav, bool) {
	switch s {
	case "first":
		return NavFirst, true
	case "prev":
		return NavPrev, true
	case "next":
		return NavNext, true
	case "last":
		return NavLast, true
	default:
		return 0, false
	}
}

// PageInfo describes the page being rendered.
type PageInfo struct {
	Index  int // 0-based
	Total  int
	Offset int // index in the original list of the first item on the page
}

// Footer returns the conventional "Página i/N" footer.
func (p PageInfo) Footer() string {
	return fmt.Sprintf("Página %d/%d", p.Index+1, p.Total)
}

// PageSet is an immutable ordered list of rendered pages. It always holds
// at least one page.
type PageSet struct {
	pages []render.Message
}

// NewPageSet builds a set from pre-rendered pages. With no pages it holds
// a single empty page.
func NewPageSet(pages ...render.Message) PageSet {
	if len(pages) == 0 {
		pages = []render.Message{{}}
	}
	return PageSet{pages: append([]render.Message(nil), pages...)}
}

// Len returns the number of pages.
func (p PageSet) Len() int {
	if len(p.pages) == 0 {
		return 1
	}
	return len(p.pages)
}

// Page returns page i, clamped to the valid range.
func (p PageSet) Page(i int) render.Message {
	if len(p.pages) == 0 {
		return render.Message{}
	}
	return p.pages[clamp(i, len(p.pages))]
}

// Chunk splits items into contiguous slices of size items, preserving
// order; the last chunk may be shorter. Empty input yields one empty chunk
// and size <= 0 is treated as 1.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	if len(items) == 0 {
		return [][]T{{}}
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Build chunks items and renders every page up front. renderPage is
// called once per page; for empty input it is called once with no items
// and must render the "no results" page.
func Build[T any](items []T, size int, renderPage func(items []T, p PageInfo) render.Message) PageSet {
	if size <= 0 {
		size = 1
	}
	chunks := Chunk(items, size)
	pages := make([]render.Message, len(chunks))
	for i, chunk := range chunks {
		pages[i] = renderPage(chunk, PageInfo{Index: i, Total: len(chunks), Offset: i * size})
	}
	return PageSet{pages: pages}
}

// Controls reports which navigation controls are enabled.
type Controls struct {
	First  bool
	Prev   bool
	Next   bool
	Last   bool
	Delete bool
}

// ControlsFor derives the control state from a position.
func ControlsFor(index, total int) Controls {
	return Controls{
		First:  index > 0,
		Prev:   index > 0,
		Next:   index < total-1,
		Last:   index < total-1,
		Delete: true,
	}
}

// View is what the presentation layer renders for a paginated session.
type View struct {
	SessionID string
	Page      render.Message
	Index     int
	Total     int
	Controls  Controls
}

// Multipage reports whether navigation controls are worth showing.
func (v View) Multipage() bool {
	return v.Total > 1
}

type state struct {
	pages PageSet
	index int
}

func (s state) view(id string) View {
	total := s.pages.Len()
	return View{
		SessionID: id,
		Page:      s.pages.Page(s.index),
		Index:     s.index,
		Total:     total,
		Controls:  ControlsFor(s.index, total),
	}
}

// Engine opens and navigates paginated sessions.
type Engine struct {
	registry *session.Registry
}

// NewEngine creates an engine backed by registry.
func NewEngine(registry *session.Registry) *Engine {
	return &Engine{registry: registry}
}

// Open registers a new paginated session owned by ownerID on page 0.
func (e *Engine) Open(ownerID string, pages PageSet, ttl time.Duration) View {
	st := state{pages: pages}
	id := e.registry.Create(session.KindPagination, ownerID, st, ttl)
	return st.view(id)
}

// Navigate moves the session's current page. Prev and Next clamp at the
// ends; navigating a single page is a no-op.
func (e *Engine) Navigate(sessionID, actorID string, nav Nav) (View, error) {
	var v View
	_, err := e.registry.Update(sessionID, actorID, func(s *session.Session) error {
		st, err := stateOf(s)
		if err != nil {
			return err
		}
		last := st.pages.Len() - 1
		switch nav {
		case NavFirst:
			st.index = 0
		case NavPrev:
			st.index = max(st.index-1, 0)
		case NavNext:
			st.index = min(st.index+1, last)
		case NavLast:
			st.index = last
		default:
			return domerrors.NewValidationError("nav", "Ação de navegação inválida.")
		}
		s.State = st
		v = st.view(s.ID)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return v, nil
}

// Current returns the session's view without changing it.
func (e *Engine) Current(sessionID string) (View, error) {
	s, err := e.registry.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	st, err := stateOf(&s)
	if err != nil {
		return View{}, err
	}
	return st.view(sessionID), nil
}

// Delete closes the session. Only the owner may delete it.
func (e *Engine) Delete(sessionID, actorID string) error {
	_, err := e.registry.Take(sessionID, actorID, func(s *session.Session) error {
		_, err := stateOf(s)
		return err
	}, session.ReasonDeleted)
	return err
}

// stateOf returns a copy of the pagination state; callers store it back
// through s.State to mutate.
func stateOf(s *session.Session) (state, error) {
	st, ok := s.State.(state)
	if !ok || s.Kind != session.KindPagination {
		return state{}, fmt.Errorf("session %s is not a paginated view: %w", s.ID, domerrors.ErrNotFound)
	}
	return st, nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
