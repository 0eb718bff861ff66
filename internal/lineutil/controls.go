package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// NewControlButton creates a compact postback button. A disabled control
// is drawn as gray text with no action, since Flex buttons cannot be
// greyed out.
func NewControlButton(label, data string, enabled bool) messaging_api.FlexComponentInterface {
	if !enabled {
		return NewFlexBox("vertical",
			NewFlexText(label).WithSize("sm").WithColor(ColorDisabled).WithAlign("center").FlexText,
		).WithBackgroundColor(ColorDisabledBg).WithCornerRadius("md").WithPaddingAll(SpacingS).FlexBox
	}
	return NewFlexButton(NewPostbackAction(label, data)).
		WithStyle("secondary").
		WithHeight("sm").FlexButton
}

// NavControl is one button of a navigation row.
type NavControl struct {
	Label   string
	Data    string
	Enabled bool
}

// NewNavRow lays out navigation controls side by side.
func NewNavRow(controls ...NavControl) *FlexBox {
	items := make([]messaging_api.FlexComponentInterface, len(controls))
	for i, c := range controls {
		items[i] = NewControlButton(c.Label, c.Data, c.Enabled)
	}
	return NewButtonRow(items...)
}

// NewConfirmRow creates the confirm/cancel pair of a confirmation dialog.
func NewConfirmRow(confirmData, cancelData string) *FlexBox {
	return NewButtonRow(
		NewFlexButton(NewPostbackAction("✅ Confirmar", confirmData)).WithStyle("primary").WithColor(ColorButtonPrimary).WithHeight("sm").FlexButton,
		NewFlexButton(NewPostbackAction("❌ Cancelar", cancelData)).WithStyle("secondary").WithHeight("sm").FlexButton,
	)
}

// OptionButton is one choice of a selection list.
type OptionButton struct {
	Label string
	Data  string
}

// NewOptionFooters stacks option buttons vertically, at most
// MaxOptionButtons per footer. The caller places each footer on its own
// bubble of a carousel.
func NewOptionFooters(options []OptionButton) []*FlexBox {
	var footers []*FlexBox
	for start := 0; start < len(options); start += MaxOptionButtons {
		end := min(start+MaxOptionButtons, len(options))
		rows := make([]*FlexBox, 0, end-start)
		for _, o := range options[start:end] {
			btn := NewFlexButton(NewPostbackAction(o.Label, o.Data)).
				WithStyle("secondary").
				WithHeight("sm")
			rows = append(rows, NewFlexBox("vertical", btn.FlexButton))
		}
		footers = append(footers, NewButtonFooter(rows...))
	}
	return footers
}
