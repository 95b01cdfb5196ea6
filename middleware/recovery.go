package middleware

import (
	"log/slog"
	"net/http"
)

// NewRecoveryMiddleware returns a middleware function that recovers from
// panics in downstream handlers. A panicking request is answered with a bare
// 500 and logged with the remote address; it never takes down the listener or
// leaks internal detail to the client.
// If logger is nil, slog.Default() is used.
func NewRecoveryMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						slog.Any("error", err),
						slog.String("remote", r.RemoteAddr),
						slog.String("path", r.URL.Path),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
