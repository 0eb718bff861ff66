package lineutil

import (
	"fmt"
	"math"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// FlexBubble wrapper
type FlexBubble struct {
	*messaging_api.FlexBubble
}

// NewFlexBubble creates a new Flex Bubble container.
// header, body and footer may be nil.
func NewFlexBubble(header *FlexBox, hero messaging_api.FlexComponentInterface, body *FlexBox, footer *FlexBox) *FlexBubble {
	bubble := &messaging_api.FlexBubble{}
	if header != nil {
		bubble.Header = header.FlexBox
	}
	if hero != nil {
		bubble.Hero = hero
	}
	if body != nil {
		bubble.Body = body.FlexBox
	}
	if footer != nil {
		bubble.Footer = footer.FlexBox
	}
	return &FlexBubble{bubble}
}

// MaxBubblesPerCarousel is the LINE API limit for Flex Carousel
const MaxBubblesPerCarousel = 10

// BuildCarouselMessages creates Flex Messages from bubbles, splitting into
// several carousels when there are more than MaxBubblesPerCarousel.
func BuildCarouselMessages(altText string, bubbles []messaging_api.FlexBubble, sender *messaging_api.Sender) []messaging_api.MessageInterface {
	if len(bubbles) == 0 {
		return nil
	}

	var messages []messaging_api.MessageInterface
	for i := 0; i < len(bubbles); i += MaxBubblesPerCarousel {
		end := min(i+MaxBubblesPerCarousel, len(bubbles))

		alt := altText
		if i > 0 {
			alt = fmt.Sprintf("%s (%d-%d)", altText, i+1, end)
		}

		msg := NewFlexMessage(alt, &messaging_api.FlexCarousel{Contents: bubbles[i:end]})
		msg.Sender = sender
		messages = append(messages, msg)
	}
	return messages
}

// FlexBox wrapper for messaging_api.FlexBox with fluent API.
type FlexBox struct {
	*messaging_api.FlexBox
}

// NewFlexBox creates a new FlexBox with the specified layout and contents.
func NewFlexBox(layout string, contents ...messaging_api.FlexComponentInterface) *FlexBox {
	return &FlexBox{&messaging_api.FlexBox{
		Layout:   messaging_api.FlexBoxLAYOUT(layout),
		Contents: contents,
	}}
}

// WithSpacing sets the spacing between components.
func (b *FlexBox) WithSpacing(spacing string) *FlexBox {
	b.Spacing = spacing
	return b
}

// WithMargin sets the margin of the box.
func (b *FlexBox) WithMargin(margin string) *FlexBox {
	b.Margin = margin
	return b
}

// WithPaddingAll sets the padding for all sides of the box.
func (b *FlexBox) WithPaddingAll(padding string) *FlexBox {
	b.PaddingAll = padding
	return b
}

// WithBackgroundColor sets the background color of the box.
func (b *FlexBox) WithBackgroundColor(color string) *FlexBox {
	b.BackgroundColor = color
	return b
}

// WithCornerRadius sets the corner radius of the box.
func (b *FlexBox) WithCornerRadius(radius string) *FlexBox {
	b.CornerRadius = radius
	return b
}

// WithFlex sets the flex factor of the box.
func (b *FlexBox) WithFlex(flex int) *FlexBox {
	b.Flex = clampInt32(flex)
	return b
}

// FlexText wrapper for messaging_api.FlexText with fluent API.
type FlexText struct {
	*messaging_api.FlexText
}

// NewFlexText creates a new FlexText. LINE rejects empty text, so an empty
// string becomes a single space.
func NewFlexText(text string) *FlexText {
	if text == "" {
		text = " "
	}
	return &FlexText{&messaging_api.FlexText{Text: text}}
}

// WithWeight sets the font weight (regular/bold).
func (t *FlexText) WithWeight(weight string) *FlexText {
	t.Weight = messaging_api.FlexTextWEIGHT(weight)
	return t
}

// WithSize sets the font size.
func (t *FlexText) WithSize(size string) *FlexText {
	t.Size = size
	return t
}

// WithColor sets the text color.
func (t *FlexText) WithColor(color string) *FlexText {
	t.Color = color
	return t
}

// WithWrap enables or disables text wrapping.
func (t *FlexText) WithWrap(wrap bool) *FlexText {
	t.Wrap = wrap
	return t
}

// WithFlex sets the flex factor for the text component.
func (t *FlexText) WithFlex(flex int) *FlexText {
	t.Flex = clampInt32(flex)
	return t
}

// WithAlign sets the text alignment (start/end/center).
func (t *FlexText) WithAlign(align string) *FlexText {
	t.Align = messaging_api.FlexTextALIGN(align)
	return t
}

// WithMargin sets the margin of the text component.
func (t *FlexText) WithMargin(margin string) *FlexText {
	t.Margin = margin
	return t
}

// WithMaxLines sets the maximum number of lines to display.
func (t *FlexText) WithMaxLines(lines int) *FlexText {
	t.MaxLines = clampInt32(lines)
	return t
}

// WithLineSpacing sets the spacing between lines.
func (t *FlexText) WithLineSpacing(spacing string) *FlexText {
	t.LineSpacing = spacing
	return t
}

// FlexButton wrapper for messaging_api.FlexButton with fluent API.
type FlexButton struct {
	*messaging_api.FlexButton
}

// NewFlexButton creates a new FlexButton with the specified action.
func NewFlexButton(action messaging_api.ActionInterface) *FlexButton {
	return &FlexButton{&messaging_api.FlexButton{Action: action}}
}

// WithStyle sets the button style (link/primary/secondary).
func (b *FlexButton) WithStyle(style string) *FlexButton {
	b.Style = messaging_api.FlexButtonSTYLE(style)
	return b
}

// WithColor sets the button color.
func (b *FlexButton) WithColor(color string) *FlexButton {
	b.Color = color
	return b
}

// WithHeight sets the button height (sm/md).
func (b *FlexButton) WithHeight(height string) *FlexButton {
	b.Height = messaging_api.FlexButtonHEIGHT(height)
	return b
}

// FlexSeparator wrapper for messaging_api.FlexSeparator with fluent API.
type FlexSeparator struct {
	*messaging_api.FlexSeparator
}

// NewFlexSeparator creates a new FlexSeparator.
func NewFlexSeparator() *FlexSeparator {
	return &FlexSeparator{&messaging_api.FlexSeparator{}}
}

// WithMargin sets the margin of the separator.
func (s *FlexSeparator) WithMargin(margin string) *FlexSeparator {
	s.Margin = margin
	return s
}

func clampInt32(v int) int32 {
	if v < 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

// TruncateRunes truncates text by rune count (not byte count) to properly handle UTF-8.
// Returns truncated string with "..." if exceeds maxRunes.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:max(maxRunes, 0)])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// NewHeroBox creates the colored title area of a bubble. The subtitle is
// omitted when empty.
func NewHeroBox(title, subtitle, color string) *FlexBox {
	contents := []messaging_api.FlexComponentInterface{
		NewFlexText(title).WithWeight("bold").WithSize("lg").WithColor(ColorHeroText).WithWrap(true).WithLineSpacing(LineSpacingNormal).FlexText,
	}
	if subtitle != "" {
		contents = append(contents, NewFlexText(subtitle).WithSize("xs").WithColor(ColorHeroText).WithMargin("md").WithWrap(true).FlexText)
	}
	return NewFlexBox("vertical", contents...).
		WithBackgroundColor(color).
		WithPaddingAll(SpacingL)
}

// NewInfoRow creates a label-over-value row.
//
//	┌─────────────────────────────┐
//	│ label                       │  <- gray, xs
//	│ value text with wrap        │
//	└─────────────────────────────┘
func NewInfoRow(label, value string) *FlexBox {
	return NewFlexBox("vertical",
		NewFlexText(label).WithColor(ColorLabel).WithSize("xs").FlexText,
		NewFlexText(value).WithColor(ColorText).WithSize("sm").WithWrap(true).WithMargin("xs").FlexText,
	)
}

// NewInlineRow creates a row with label and value side by side.
func NewInlineRow(label, value string) *FlexBox {
	return NewFlexBox("horizontal",
		NewFlexText(label).WithColor(ColorLabel).WithSize("sm").WithFlex(2).WithWrap(true).FlexText,
		NewFlexText(value).WithColor(ColorText).WithSize("sm").WithFlex(3).WithAlign("end").WithWrap(true).FlexText,
	).WithSpacing("sm")
}

// NewButtonRow lays out components side by side with equal width. Nil
// entries are skipped.
func NewButtonRow(items ...messaging_api.FlexComponentInterface) *FlexBox {
	contents := make([]messaging_api.FlexComponentInterface, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		contents = append(contents, NewFlexBox("vertical", it).WithFlex(1).FlexBox)
	}
	return NewFlexBox("horizontal", contents...).WithSpacing("sm")
}

// NewButtonFooter stacks rows vertically, dropping empty rows.
func NewButtonFooter(rows ...*FlexBox) *FlexBox {
	var contents []messaging_api.FlexComponentInterface
	for _, row := range rows {
		if row != nil && len(row.Contents) > 0 {
			contents = append(contents, row.FlexBox)
		}
	}
	return NewFlexBox("vertical", contents...).WithSpacing("sm")
}

// BodyContentBuilder builds a bubble body, inserting separators between items.
type BodyContentBuilder struct {
	contents []messaging_api.FlexComponentInterface
}

// NewBodyContentBuilder creates a new body content builder.
func NewBodyContentBuilder() *BodyContentBuilder {
	return &BodyContentBuilder{}
}

// AddText adds a wrapped paragraph.
func (b *BodyContentBuilder) AddText(text string) *BodyContentBuilder {
	if text == "" {
		return b
	}
	return b.AddComponent(NewFlexText(text).WithSize("sm").WithColor(ColorText).WithWrap(true).WithLineSpacing(LineSpacingNormal).FlexText)
}

// AddComponent adds a raw component with automatic separator.
func (b *BodyContentBuilder) AddComponent(component messaging_api.FlexComponentInterface) *BodyContentBuilder {
	if len(b.contents) > 0 {
		b.contents = append(b.contents, NewFlexSeparator().WithMargin("md").FlexSeparator)
	}
	b.contents = append(b.contents, component)
	return b
}

// Len returns the number of items added, separators excluded.
func (b *BodyContentBuilder) Len() int {
	return (len(b.contents) + 1) / 2
}

// Build returns the FlexBox with all contents.
func (b *BodyContentBuilder) Build() *FlexBox {
	return NewFlexBox("vertical", b.contents...).WithSpacing("md")
}
