package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/discoveryping/logger"
)

// probePaths are polled by orchestrators and registries and logged at
// debug only.
var probePaths = map[string]bool{
	"/health":           true,
	"/ping":             true,
	"/app-health-check": true,
	"/metrics":          true,
}

// RequestLogger logs every request with method, path, status and latency.
// Probe paths are logged at debug; other requests by status class.
func RequestLogger(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			latency := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, rec.status,
				"size", rec.bytes,
				logger.FieldDuration, latency.Milliseconds(),
			)
			if q := r.URL.RawQuery; q != "" {
				fields["query"] = q
			}
			if latency > 500*time.Millisecond {
				fields["slow"] = true
			}

			l := log.WithContext(r.Context())
			if probePaths[r.URL.Path] && rec.status < http.StatusInternalServerError {
				l.Debug("Request completed", fields)
				return
			}
			logByStatus(l, fields, rec.status)
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Info("Request completed", fields)
	}
}
