package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Error taxonomy for backend calls. Callers branch on these with
// errors.Is; the concrete *APIError carries the backend detail.
var (
	// ErrTransport represents a network failure or timeout
	ErrTransport = errors.New("backend unreachable")
	// ErrAuth represents a rejected credential (401/403)
	ErrAuth = errors.New("authentication rejected")
	// ErrValidation represents a 4xx rejection with a structured message
	ErrValidation = errors.New("request rejected")
	// ErrServer represents a 5xx backend failure
	ErrServer = errors.New("backend error")
	// ErrConflict represents an optimistic-concurrency version mismatch
	ErrConflict = errors.New("version conflict")
)

// APIError represents a non-2xx backend response
type APIError struct {
	kind    error
	Status  int
	Message string
}

// Error returns the backend message with its status code
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.kind, e.Status, e.Message)
}

// Unwrap exposes the taxonomy sentinel for errors.Is
func (e *APIError) Unwrap() error {
	return e.kind
}

// errorBody matches the backend's error envelope. The message field is
// either a string or a list of field-level messages.
type errorBody struct {
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

func (b errorBody) text() string {
	if len(b.Message) == 0 {
		return b.Error
	}
	var single string
	if err := json.Unmarshal(b.Message, &single); err == nil {
		return single
	}
	var multi []string
	if err := json.Unmarshal(b.Message, &multi); err == nil {
		return strings.Join(multi, "; ")
	}
	return string(b.Message)
}

// classify maps a backend response status and body to the error taxonomy
func classify(status int, body []byte) error {
	var parsed errorBody
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &parsed); err == nil {
		if t := parsed.text(); t != "" {
			msg = t
		}
	}

	kind := ErrValidation
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrAuth
	case status == http.StatusConflict:
		kind = ErrConflict
	case status >= 500:
		kind = ErrServer
	case strings.Contains(strings.ToLower(msg), "version"):
		// Some endpoints report stale version fields as a plain 400
		kind = ErrConflict
	}

	return &APIError{kind: kind, Status: status, Message: msg}
}
