// Package setupserve defines the core contracts of the setup distribution
// server: a credential gate that decides access and endpoints that the server
// mounts and serves.
package setupserve

import (
	"context"
	"net/http"
)

// Gate decides whether the raw value of an Authorization header grants
// access. Implementations must be total: every input maps to accept or
// reject, never an error.
type Gate interface {
	Authenticate(header string) bool
}

// Endpoint is interface for routable endpoints
type Endpoint interface {
	Path() string
	Handler() http.Handler
	Close(ctx ...context.Context) error
}
