package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gantry-dev/gantry/pkg/httperr"
)

// Recoverer converts handler panics into the structured JSON 500 payload.
//
// The stack trace is included in the payload only when production is false.
// If response headers were already sent the error cannot be re-handled here;
// it is logged and re-raised so the server aborts the connection.
func Recoverer(logger *slog.Logger, production bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				stack := debug.Stack()
				logger.Error("handler panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(stack)),
				)

				if ww.Status() != 0 {
					// Headers are out; forward the failure instead of
					// writing a second response.
					panic(http.ErrAbortHandler)
				}

				code := http.StatusInternalServerError
				message := "internal server error"
				var httpErr *httperr.HTTPError
				if err, ok := rec.(error); ok && errors.As(err, &httpErr) {
					code = httpErr.Code
					message = httpErr.Message
				}

				payloadStack := ""
				if !production {
					payloadStack = fmt.Sprintf("%v\n%s", rec, stack)
				}
				httperr.Write(ww, code, message, payloadStack)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
