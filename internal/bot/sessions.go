package bot

import (
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Sessions bundles the interactive engines handed to modules.
type Sessions struct {
	Pages   *pagination.Engine
	Dialogs *dialog.Engine
	TTL     time.Duration
}

// Paginate opens a paginated view owned by ownerID.
func (s Sessions) Paginate(ownerID string, pages pagination.PageSet) Response {
	return PageResponse(s.Pages.Open(ownerID, pages, s.TTL))
}

// Confirm opens a confirmation dialog owned by ownerID.
func (s Sessions) Confirm(ownerID string, prompt render.Message, onConfirm, onCancel dialog.Continuation) (Response, error) {
	v, err := s.Dialogs.CreateConfirmation(ownerID, prompt, onConfirm, onCancel, s.TTL)
	if err != nil {
		return Response{}, err
	}
	return DialogResponse(v), nil
}

// Select opens a selection dialog owned by ownerID.
func (s Sessions) Select(ownerID string, prompt render.Message, options []dialog.Option, onSelect dialog.Continuation) (Response, error) {
	v, err := s.Dialogs.CreateSelection(ownerID, prompt, options, onSelect, s.TTL)
	if err != nil {
		return Response{}, err
	}
	return DialogResponse(v), nil
}
