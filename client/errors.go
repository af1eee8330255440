package client

import (
	"fmt"
	"net/http"
)

// ErrorKind identifies which failure an *Error describes.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindMissingAPIKey
	KindMissingResponse
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindNotAcceptable
	KindTooManyRequests
	KindServerError
	KindServiceUnavailable
)

var kindNames = map[ErrorKind]string{
	KindOther:              "other",
	KindMissingAPIKey:      "missing API key",
	KindMissingResponse:    "missing response",
	KindBadRequest:         "bad request",
	KindUnauthorized:       "unauthorized",
	KindForbidden:          "forbidden",
	KindNotFound:           "not found",
	KindNotAcceptable:      "not acceptable",
	KindTooManyRequests:    "too many requests",
	KindServerError:        "server error",
	KindServiceUnavailable: "service unavailable",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by Client operations.
// Message is only set for KindOther.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Kind == KindOther {
		return "whale alert: " + e.Message
	}
	return "whale alert: " + e.Kind.String()
}

// Is matches errors of the same kind so callers can compare against the
// sentinels below with errors.Is. Two KindOther errors only match when their
// messages are equal, unless the target carries no message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if e.Kind == KindOther && t.Message != "" {
		return e.Message == t.Message
	}
	return true
}

// Temporary reports whether the failure is transient on the server side.
// The client never retries; this is a hint for callers that do.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindTooManyRequests, KindServerError, KindServiceUnavailable:
		return true
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrMissingAPIKey      = &Error{Kind: KindMissingAPIKey}
	ErrMissingResponse    = &Error{Kind: KindMissingResponse}
	ErrBadRequest         = &Error{Kind: KindBadRequest}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrNotAcceptable      = &Error{Kind: KindNotAcceptable}
	ErrTooManyRequests    = &Error{Kind: KindTooManyRequests}
	ErrServerError        = &Error{Kind: KindServerError}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
)

// OtherError builds a KindOther error carrying message.
func OtherError(message string) *Error {
	return &Error{Kind: KindOther, Message: message}
}

// errorForStatus maps an HTTP status code to its error kind. It returns nil for
// 200 and for codes outside the documented mapping.
func errorForStatus(code int) *Error {
	var kind ErrorKind
	switch code {
	case http.StatusBadRequest:
		kind = KindBadRequest
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusNotAcceptable:
		kind = KindNotAcceptable
	case http.StatusTooManyRequests:
		kind = KindTooManyRequests
	case http.StatusInternalServerError:
		kind = KindServerError
	case http.StatusServiceUnavailable:
		kind = KindServiceUnavailable
	default:
		return nil
	}
	return &Error{Kind: kind}
}

// envelopeError formats the API's {result, message} error payload.
func envelopeError(result, message string) *Error {
	return OtherError(fmt.Sprintf("Result: %s | Message: %s.", result, message))
}
