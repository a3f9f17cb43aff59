package errors

import (
	"fmt"
	"strings"
)

// AppError carries everything needed to log a failure and render it to a
// client. HTTPStatus and Cause never leave the process.
type AppError struct {
	Code       ErrorCode
	Message    string
	Retryable  bool
	HTTPStatus int
	Details    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail entry, replacing any previous value.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 2)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError whose status and retryability follow from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Retryable:  code.Retryable(),
		HTTPStatus: code.HTTPStatus(),
	}
}

// ServiceUnavailable reports that service has no registered instance.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("no instance of %s is available", service)).
		WithDetail("service", service)
}

// DiscoveryUnavailable reports that the registry could not be queried for
// service.
func DiscoveryUnavailable(service string, cause error) *AppError {
	return New(ErrCodeDiscoveryUnavailable, fmt.Sprintf("service discovery for %s is unavailable", service)).
		WithDetail("service", service).
		WithCause(cause)
}

// Timeout reports an operation that ran past its deadline.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, operation+" timed out").
		WithDetail("operation", operation)
}

// ExternalServiceError reports a failed call to a downstream service.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, fmt.Sprintf("call to %s failed", service)).
		WithDetail("service", service).
		WithCause(cause)
}

// Canceled reports that the caller abandoned operation.
func Canceled(operation string, cause error) *AppError {
	return New(ErrCodeClientClosed, operation+" canceled by caller").
		WithDetail("operation", operation).
		WithCause(cause)
}

func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, resource+" not found").WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func MethodNotAllowed(method, path string) *AppError {
	return New(ErrCodeMethodNotAllowed, fmt.Sprintf("method %s is not allowed on %s", method, path)).
		WithDetail("method", method).
		WithDetail("path", path)
}

func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// Internal hides cause from the client behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "internal error").WithCause(cause)
}
