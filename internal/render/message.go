// Package render turns backend results, domain values and errors into
// platform-neutral message payloads. Everything here is pure.
package render

import "strings"

// Status tags a message with its meaning; the presentation layer maps it
// to a color.
type Status int

const (
	StatusInfo Status = iota
	StatusSuccess
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Field is a labelled value displayed under the body.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a rendered payload ready for the presentation surface.
type Message struct {
	Title  string
	Body   string
	Fields []Field
	Status Status
	// Color overrides the status color when set (hex, e.g. "#06C755").
	Color     string
	Retriable bool
	Footer    string
	ImageURL  string

	// Part and Parts are set on messages produced by SplitMessage (1-based).
	Part  int
	Parts int

	// Dismiss marks a notice that replaces a closed interactive message.
	Dismiss bool

	// Buttons are actions anyone in the chat may press. Data is routed back
	// to the bot as a postback.
	Buttons []Button
}

// Button is an action attached to a message.
type Button struct {
	Label string
	Data  string
}

// Info returns an informational message.
func Info(title, body string) Message {
	return Message{Title: title, Body: body, Status: StatusInfo}
}

// Success returns a success message.
func Success(title, body string) Message {
	return Message{Title: title, Body: body, Status: StatusSuccess}
}

// Warning returns a warning message.
func Warning(title, body string) Message {
	return Message{Title: title, Body: body, Status: StatusWarning}
}

// Error returns a non-retriable error message.
func Error(title, body string) Message {
	return Message{Title: title, Body: body, Status: StatusError}
}

// WithField appends a field and returns the message.
func (m Message) WithField(name, value string, inline bool) Message {
	m.Fields = append(append([]Field(nil), m.Fields...), Field{Name: name, Value: value, Inline: inline})
	return m
}

// WithFooter sets the footer.
func (m Message) WithFooter(footer string) Message {
	m.Footer = footer
	return m
}

// WithButton appends an action button.
func (m Message) WithButton(label, data string) Message {
	m.Buttons = append(append([]Button(nil), m.Buttons...), Button{Label: label, Data: data})
	return m
}

// WithImage sets the image URL.
func (m Message) WithImage(url string) Message {
	m.ImageURL = url
	return m
}

// PlainText flattens the message into a single text block, used for alt
// text and for surfaces without rich layout.
func (m Message) PlainText() string {
	var sb strings.Builder
	if m.Title != "" {
		sb.WriteString(m.Title)
	}
	if m.Body != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Body)
	}
	for _, f := range m.Fields {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
	}
	if m.Footer != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Footer)
	}
	return sb.String()
}
