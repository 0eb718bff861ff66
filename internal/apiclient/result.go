package apiclient

import (
	"bytes"
	"encoding/json"
	"strings"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
)

// Kind classifies the outcome of a backend call.
type Kind int

const (
	// KindSuccess is a 2xx response.
	KindSuccess Kind = iota
	// KindClientError is a 4xx response: the request itself was rejected.
	KindClientError
	// KindServerError is a 5xx or otherwise unexpected response, or no
	// response at all (Status == 0, Cause set).
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindClientError:
		return "client_error"
	default:
		return "server_error"
	}
}

// Result is the tagged outcome of one backend call. It is never coerced:
// callers must inspect Kind (or call Err) before trusting Body.
type Result struct {
	Backend string
	Kind    Kind
	Status  int    // 0 when no response was received
	Body    []byte // raw response body, possibly empty
	Cause   error  // transport failure cause, nil when a response was received
}

// OK reports whether the call returned 2xx.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// IsTransportFailure reports whether no HTTP response was received.
func (r Result) IsTransportFailure() bool {
	return r.Kind == KindServerError && r.Status == 0
}

// IsJSON reports whether the body parses as JSON.
func (r Result) IsJSON() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) > 0 && json.Valid(trimmed)
}

// Text returns the body as trimmed text.
func (r Result) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// messageKeys are the body fields the backends use for human-readable
// errors, in priority order.
var messageKeys = []string{"detail", "error", "message"}

// Message returns the backend's human-readable message: the first string
// field among detail/error/message of a JSON object, or the raw text when
// the body is not JSON. Returns "" when neither is present.
func (r Result) Message() string {
	if !r.IsJSON() {
		return r.Text()
	}
	var obj map[string]any
	if err := json.Unmarshal(r.Body, &obj); err != nil {
		return ""
	}
	for _, key := range messageKeys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			// validation frameworks report detail as a list of {msg: ...}
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					if msg, ok := m["msg"].(string); ok && msg != "" {
						return msg
					}
				}
			}
		}
	}
	return ""
}

// Err converts a non-success result into a *errors.BackendError.
// Returns nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	msg := ""
	if r.Kind == KindClientError {
		msg = r.Message()
	}
	return domerrors.NewBackendError(r.Backend, r.Status, msg, r.Cause)
}

// Decode unmarshals a successful body into v. A non-success result returns
// its Err(); a body that does not match v returns a *errors.DecodeError.
func (r Result) Decode(target string, v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return domerrors.NewDecodeError(r.Backend, target, err)
	}
	return nil
}
