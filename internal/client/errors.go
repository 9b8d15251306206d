package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrTransient    = errors.New("transient failure")
	ErrMalformed    = errors.New("malformed response")
	ErrAuthRequired = errors.New("authentication required")
	ErrRejected     = errors.New("request rejected")
)

// Error describes a failed API call.
type Error struct {
	Op     string // e.g. "GET /data"
	Status int    // 0 when no response arrived
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// kindForStatus maps an HTTP error status onto a failure kind.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuthRequired
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return ErrTransient
	default:
		return ErrRejected
	}
}
