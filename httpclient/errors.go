package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the client itself.
var (
	// ErrNilRequest is the cause reported when Execute is called with a nil request.
	ErrNilRequest = errors.New("httpclient: request is nil")
	// ErrNotCompleted is returned by Future.Result before the future has completed.
	ErrNotCompleted = errors.New("httpclient: future not completed")
	// ErrInvalidURL is the cause reported when a request URL is not absolute.
	ErrInvalidURL = errors.New("httpclient: request URL must be absolute")
	// ErrNilResponse is the cause reported when a transport completes with neither response nor error.
	ErrNilResponse = errors.New("httpclient: transport returned no response")
)

// ErrorType classifies an Error for callers that do not care about exact status codes.
type ErrorType int

const (
	// NetworkError means no HTTP response was obtained.
	NetworkError ErrorType = iota
	// HTTPError means the service answered with a non-success status.
	HTTPError
	// RateLimitError means the service kept answering 429 beyond the retry ceiling.
	RateLimitError
)

// String returns the lowercase name of the error type.
func (t ErrorType) String() string {
	switch t {
	case NetworkError:
		return "network"
	case HTTPError:
		return "http"
	case RateLimitError:
		return "rate_limit"
	default:
		return "unknown"
	}
}

// ErrorDetail is the service's structured error payload.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Error is the only error type delivered by the client. StatusCode is 0 when no response
// was obtained, in which case Cause holds the transport fault.
type Error struct {
	StatusCode int
	Body       string
	Detail     *ErrorDetail
	Cause      error
}

// NewTransportError wraps a fault that prevented any response from being obtained.
func NewTransportError(cause error) *Error {
	return &Error{Cause: cause}
}

// NewStatusError builds an error for a non-success response.
func NewStatusError(statusCode int, body []byte, detail *ErrorDetail) *Error {
	return &Error{StatusCode: statusCode, Body: string(body), Detail: detail}
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("airtable: network error: %v", e.Cause)
		}
		return "airtable: network error"
	}
	msg := fmt.Sprintf("airtable: HTTP error %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != nil {
		msg += ": " + e.Detail.Type
		if e.Detail.Message != "" {
			msg += ": " + e.Detail.Message
		}
	}
	return msg
}

// Unwrap exposes the transport fault, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Type reports the broad category of the error.
func (e *Error) Type() ErrorType {
	switch {
	case e.StatusCode == 0:
		return NetworkError
	case e.StatusCode == http.StatusTooManyRequests:
		return RateLimitError
	default:
		return HTTPError
	}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorType reports whether err carries an *Error of type t.
func IsErrorType(err error, t ErrorType) bool {
	e, ok := AsError(err)
	return ok && e.Type() == t
}

// IsStatus reports whether err carries an *Error with the given status code.
func IsStatus(err error, statusCode int) bool {
	e, ok := AsError(err)
	return ok && e.StatusCode == statusCode
}

// IsRateLimited reports whether err is a 429 that outlived the retry ceiling.
func IsRateLimited(err error) bool {
	return IsStatus(err, http.StatusTooManyRequests)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
