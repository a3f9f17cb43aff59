package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode says which stage of an outbound call failed.
type ErrorCode string

const (
	ErrCodeTimeout    ErrorCode = "timeout"    // client timeout or context deadline
	ErrCodeConnection ErrorCode = "connection" // refused, DNS, reset
	ErrCodeCanceled   ErrorCode = "canceled"   // caller canceled the context
	ErrCodeRequest    ErrorCode = "request"    // request could not be built
	ErrCodeClient     ErrorCode = "client"     // 4xx
	ErrCodeServer     ErrorCode = "server"     // 5xx, 1xx/3xx or an oversized body
)

func (c ErrorCode) String() string { return string(c) }

// Error is a classified outbound call failure. StatusCode is 0 when no
// response arrived.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapError(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Retryable: retryable, Err: err}
}

func NewTimeoutError(err error) *Error    { return wrapError(ErrCodeTimeout, true, err) }
func NewConnectionError(err error) *Error { return wrapError(ErrCodeConnection, true, err) }
func NewRequestError(err error) *Error    { return wrapError(ErrCodeRequest, false, err) }
func NewCanceledError(err error) *Error   { return wrapError(ErrCodeCanceled, false, err) }

// ClassifyStatusCode returns nil for 2xx. 429 and 5xx are retryable.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{StatusCode: statusCode, Message: http.StatusText(statusCode), Body: body}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", statusCode)
	}
	switch {
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeClient
		e.Retryable = statusCode == http.StatusTooManyRequests
	default:
		e.Code = ErrCodeServer
		e.Retryable = statusCode >= 500
	}
	return e
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func IsTimeout(err error) bool {
	e, ok := asError(err)
	return ok && e.Code == ErrCodeTimeout
}

func IsConnection(err error) bool {
	e, ok := asError(err)
	return ok && e.Code == ErrCodeConnection
}

func IsCanceled(err error) bool {
	e, ok := asError(err)
	return ok && e.Code == ErrCodeCanceled
}

func IsRetryable(err error) bool {
	e, ok := asError(err)
	return ok && e.Retryable
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := asError(err); ok {
		return e.StatusCode
	}
	return 0
}

var errNotStarted = errors.New("http client not started")
