package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/discoveryping/logger"
)

// HeaderRequestID carries the request id on inbound and outbound requests.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLength = 128

// RequestID accepts the caller's X-Request-Id or generates one, echoes it on
// the response and stores it in the request context for logging and
// outbound calls.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if !validRequestID(id) {
				id = uuid.New().String()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLength.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
