package render

import "fmt"

// DefaultLimit is the maximum body length, in runes, of one message part.
const DefaultLimit = 4000

// Split cuts text into ordered parts of at most limit runes each.
// Concatenating the parts reproduces text exactly. When a newline or space
// falls in the last quarter of a window the cut is made right after it so
// words stay whole; otherwise the window is cut at limit.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	parts := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		cut := breakPoint(runes[:limit], limit-limit/4)
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// breakPoint returns the cut index for window: one past the last newline
// at or after minIdx, else one past the last space, else len(window).
func breakPoint(window []rune, minIdx int) int {
	for i := len(window) - 1; i >= minIdx; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i >= minIdx; i-- {
		if window[i] == ' ' {
			return i + 1
		}
	}
	return len(window)
}

// SplitMessage splits msg.Body into parts of at most limit runes. A body
// that fits returns msg unchanged. Otherwise each part carries Part/Parts,
// a "(Parte i/N)" title suffix, the image only on the first part, and the
// fields, footer and buttons only on the last.
func SplitMessage(msg Message, limit int) []Message {
	bodies := Split(msg.Body, limit)
	if len(bodies) == 1 {
		return []Message{msg}
	}

	n := len(bodies)
	out := make([]Message, n)
	for i, body := range bodies {
		part := Message{
			Title:     fmt.Sprintf("%s (Parte %d/%d)", msg.Title, i+1, n),
			Body:      body,
			Status:    msg.Status,
			Color:     msg.Color,
			Retriable: msg.Retriable,
			Part:      i + 1,
			Parts:     n,
		}
		if msg.Title == "" {
			part.Title = fmt.Sprintf("Parte %d/%d", i+1, n)
		}
		if i == 0 {
			part.ImageURL = msg.ImageURL
		}
		if i == n-1 {
			part.Fields = msg.Fields
			part.Footer = msg.Footer
			part.Buttons = msg.Buttons
		}
		out[i] = part
	}
	return out
}
