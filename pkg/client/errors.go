package client

import (
	"errors"
	"fmt"
	"net/http"
)

// RetryMessage is reported when the API could not be reached or answered
// without a response envelope.
const RetryMessage = "Something went wrong. Please try again later."

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrNetwork    = errors.New("network error")
	ErrServer     = errors.New("server error")
)

// Error is returned by every Client call that fails. Kind is one of the
// sentinels above so callers can branch with errors.Is.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Fields     map[string][]string

	// Cause is the transport error behind a network failure, if any.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func networkError(err error) error {
	return &Error{Kind: ErrNetwork, Message: RetryMessage, Cause: err}
}

func statusError(status int, message string, fields map[string][]string) error {
	kind := ErrServer
	switch status {
	case http.StatusUnprocessableEntity:
		kind = ErrValidation
	case http.StatusNotFound:
		kind = ErrNotFound
	}

	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: kind, StatusCode: status, Message: message, Fields: fields}
}
