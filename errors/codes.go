package errors

import "net/http"

// ErrorCode is the machine-readable code sent to clients.
type ErrorCode string

const (
	ErrCodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeDiscoveryUnavailable ErrorCode = "DISCOVERY_UNAVAILABLE"
	ErrCodeTimeout              ErrorCode = "TIMEOUT"
	ErrCodeExternalService      ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed     ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
	ErrCodeClientClosed         ErrorCode = "CLIENT_CLOSED_REQUEST"
)

// StatusClientClosedRequest is the non-standard status for a caller that
// went away before the response was written.
const StatusClientClosedRequest = 499

type codeInfo struct {
	status    int
	retryable bool
}

// Upstream and registry failures are retryable; caller mistakes are not.
var codes = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable:   {http.StatusServiceUnavailable, true},
	ErrCodeDiscoveryUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:              {http.StatusGatewayTimeout, true},
	ErrCodeExternalService:      {http.StatusBadGateway, true},
	ErrCodeNotFound:             {http.StatusNotFound, false},
	ErrCodeMethodNotAllowed:     {http.StatusMethodNotAllowed, false},
	ErrCodeInvalidInput:         {http.StatusBadRequest, false},
	ErrCodeInternal:             {http.StatusInternalServerError, false},
	ErrCodeClientClosed:         {StatusClientClosedRequest, false},
}

// HTTPStatus returns the status a code is rendered with. Unknown codes map
// to 500.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may repeat the request unchanged.
func (c ErrorCode) Retryable() bool {
	return codes[c].retryable
}
