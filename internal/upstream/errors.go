package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultErrorMessage is surfaced when an upstream error body carries no message.
const DefaultErrorMessage = "Service error"

// Error is returned for every failed upstream call. StatusCode is 0 when the
// service could not be reached (dial failure, timeout, cancellation) or its
// success body could not be decoded.
type Error struct {
	Service    string
	Path       string
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "upstream error"
	}
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("upstream %s %s: %v", e.Service, e.Path, e.Err)
		}
		return fmt.Sprintf("upstream %s %s: unreachable", e.Service, e.Path)
	}
	return fmt.Sprintf("upstream %s %s: status=%d message=%s", e.Service, e.Path, e.StatusCode, e.ClientMessage())
}

func (e *Error) Unwrap() error { return e.Err }

// ClientMessage is the message mirrored to BFF clients.
func (e *Error) ClientMessage() string {
	if e == nil || strings.TrimSpace(e.Message) == "" {
		return DefaultErrorMessage
	}
	return strings.TrimSpace(e.Message)
}

// HasStatus reports whether the upstream answered with an HTTP status.
func (e *Error) HasStatus() bool {
	return e != nil && e.StatusCode > 0
}

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) && ue != nil {
		return ue, true
	}
	return nil, false
}

func parseHTTPError(service, path string, status int, raw []byte) *Error {
	var env struct {
		Error string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		msg = strings.TrimSpace(env.Error)
	}
	return &Error{
		Service:    service,
		Path:       path,
		StatusCode: status,
		Message:    msg,
		Body:       strings.TrimSpace(string(raw)),
	}
}
