package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind distinguishes where a call failed. Callers can branch on it
// without parsing messages.
type ErrorKind int

const (
	// KindValidation means the call never left the process (e.g. an
	// unresolved path placeholder)
	KindValidation ErrorKind = iota
	// KindNetwork means the transport failed before a response arrived
	KindNetwork
	// KindHTTP means the backend answered with a non-success status
	KindHTTP
	// KindRefresh means the token refresh step itself failed; the local
	// session has been cleared
	KindRefresh
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Error is the one normalized error type surfaced by the client.
// Status is zero unless Kind is KindHTTP.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api %s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newValidationError(format string, v ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, v...)}
}

func newNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), cause: err}
}

func newHTTPError(status int, body []byte) *Error {
	return &Error{Kind: KindHTTP, Status: status, Message: errorMessageFromBody(body, status)}
}

func newRefreshError(err error) *Error {
	return &Error{Kind: KindRefresh, Message: err.Error(), cause: err}
}

// errorMessageFromBody pulls a human-readable message out of a backend error
// payload. The backend uses both "error" and "message" field names depending
// on the handler; fall back to the status text when neither is present.
func errorMessageFromBody(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}
