// Package middleware provides http middleware for the setup server's
// endpoints: the basic auth challenge, per-request access logging, panic
// recovery and an optional failed-login lockout.
package middleware

import (
	"io"
	"net/http"

	"github.com/syla-platform/setupserve"
)

// NewBasicAuthMiddleware returns a middleware function that performs basic
// authentication. It takes a credential gate and a realm string as input.
// The returned middleware hands the raw Authorization header to the gate
// before any path dispatch happens, so unauthenticated requests are
// challenged even for paths the downstream router would reject.
// If the gate accepts, it calls the next handler in the chain.
// If the gate rejects, it sends an HTTP 401 Unauthorized challenge.
func NewBasicAuthMiddleware(gate setupserve.Gate, realm string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Authenticate(r.Header.Get("Authorization")) {
				unauthorized(w, realm)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// unauthorized sends an HTTP 401 Unauthorized response with the specified realm.
func unauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusUnauthorized)

	_, _ = io.WriteString(w, "Authentication required.")
}
