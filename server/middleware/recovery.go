package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin/render"

	apperrors "github.com/kbukum/discoveryping/errors"
	"github.com/kbukum/discoveryping/logger"
)

// Recovery turns a panic into an INTERNAL_ERROR response and logs the
// stack. If the handler already wrote a status, only the log line is
// produced.
func Recovery(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := record(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				))
				if out.written {
					return
				}
				body := render.JSON{Data: apperrors.Internal(fmt.Errorf("panic: %v", rec)).ToResponse()}
				body.WriteContentType(out)
				out.WriteHeader(http.StatusInternalServerError)
				_ = body.Render(out)
			}()
			next.ServeHTTP(out, r)
		})
	}
}
