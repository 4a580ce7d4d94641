package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"

	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// Recovery turns panics into a 500 envelope, logs the stack and reports the
// panic to Sentry. Sentry is a no-op unless sentry.Init was called.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hub := sentry.CurrentHub().Clone()
			ctx := sentry.SetHubOnContext(r.Context(), hub)
			r = r.WithContext(ctx)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.ErrorContext(ctx, "panic recovered",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				hub.Scope().SetRequest(r)
				hub.RecoverWithContext(ctx, rec)
				hub.Flush(2 * time.Second)

				writeStatus(w, http.StatusInternalServerError, apperrors.CodeInternal, apperrors.InternalMessage)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
