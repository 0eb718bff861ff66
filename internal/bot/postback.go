package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
)

// Postback prefixes of the session engines.
const (
	PagePrefix   = "pg"
	DialogPrefix = "dlg"

	// PageDelete is the navigation token of the close button.
	PageDelete = "del"
)

// PostbackKind tells which component owns a postback.
type PostbackKind int

const (
	PostbackModule PostbackKind = iota
	PostbackPage
	PostbackDialog
)

// PostbackData is a parsed postback payload.
//
// Formats ($ is PostbackSplitChar):
//
//	pg$<session>$first|prev|next|last|del
//	dlg$<session>$confirm|cancel
//	dlg$<session>$select$<index>
//	<module>:<action>$<param>$<param>...
type PostbackData struct {
	Kind PostbackKind

	// Session postbacks.
	SessionID string
	Nav       pagination.Nav
	Delete    bool
	Action    dialog.Action

	// Module postbacks.
	Module    string
	ModAction string
	Params    []string
}

// Param returns the i-th module parameter, "" when absent.
func (p PostbackData) Param(i int) string {
	if i < 0 || i >= len(p.Params) {
		return ""
	}
	return p.Params[i]
}

var errBadPostback = errors.New("invalid postback format")

// ParsePostback parses postback data into structured PostbackData.
func ParsePostback(data string) (PostbackData, error) {
	parts := strings.Split(data, PostbackSplitChar)
	switch parts[0] {
	case PagePrefix:
		return parsePagePostback(parts)
	case DialogPrefix:
		return parseDialogPostback(parts)
	}

	module, remainder, ok := strings.Cut(data, ":")
	if !ok || module == "" {
		return PostbackData{}, fmt.Errorf("%w: missing ':' separator", errBadPostback)
	}
	fields := strings.Split(remainder, PostbackSplitChar)
	if fields[0] == "" {
		return PostbackData{}, fmt.Errorf("%w: missing action", errBadPostback)
	}
	return PostbackData{
		Kind:      PostbackModule,
		Module:    module,
		ModAction: fields[0],
		Params:    fields[1:],
	}, nil
}

func parsePagePostback(parts []string) (PostbackData, error) {
	if len(parts) != 3 || parts[1] == "" {
		return PostbackData{}, fmt.Errorf("%w: pagination", errBadPostback)
	}
	pb := PostbackData{Kind: PostbackPage, SessionID: parts[1]}
	if parts[2] == PageDelete {
		pb.Delete = true
		return pb, nil
	}
	nav, ok := pagination.ParseNav(parts[2])
	if !ok {
		return PostbackData{}, fmt.Errorf("%w: navigation %q", errBadPostback, parts[2])
	}
	pb.Nav = nav
	return pb, nil
}

func parseDialogPostback(parts []string) (PostbackData, error) {
	if len(parts) < 3 || parts[1] == "" {
		return PostbackData{}, fmt.Errorf("%w: dialog", errBadPostback)
	}
	kind, ok := dialog.ParseActionKind(parts[2])
	if !ok {
		return PostbackData{}, fmt.Errorf("%w: dialog action %q", errBadPostback, parts[2])
	}
	action := dialog.Action{Kind: kind}
	switch {
	case kind == dialog.ActionSelect:
		if len(parts) != 4 {
			return PostbackData{}, fmt.Errorf("%w: missing option index", errBadPostback)
		}
		idx, err := strconv.Atoi(parts[3])
		if err != nil {
			return PostbackData{}, fmt.Errorf("%w: option index %q", errBadPostback, parts[3])
		}
		action.Index = idx
	case len(parts) != 3:
		return PostbackData{}, fmt.Errorf("%w: dialog", errBadPostback)
	}
	return PostbackData{Kind: PostbackDialog, SessionID: parts[1], Action: action}, nil
}

// PagePostback encodes a pagination control.
func PagePostback(sessionID string, nav pagination.Nav) string {
	return JoinPostback(PagePrefix, sessionID, nav.String())
}

// PageDeletePostback encodes the close button of a paginated view.
func PageDeletePostback(sessionID string) string {
	return JoinPostback(PagePrefix, sessionID, PageDelete)
}

// DialogPostback encodes a confirm or cancel button.
func DialogPostback(sessionID string, kind dialog.ActionKind) string {
	return JoinPostback(DialogPrefix, sessionID, kind.String())
}

// SelectPostback encodes the choice of option idx.
func SelectPostback(sessionID string, idx int) string {
	return JoinPostback(DialogPrefix, sessionID, dialog.ActionSelect.String(), strconv.Itoa(idx))
}

// ModulePostback encodes a module action.
func ModulePostback(module, action string, params ...string) string {
	return module + ":" + JoinPostback(action, params...)
}
