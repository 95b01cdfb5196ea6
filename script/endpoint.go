// Package script implements the endpoint that serves the setup artifact.
//
// An Endpoint is willing to deliver exactly one file: requests for "/" and
// for the file's own name both resolve to it, every other path is a 404. The
// file is read fresh from disk on every request, so a redeployed artifact is
// picked up without a restart.
package script

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Endpoint serves a single file from a fixed directory.
type Endpoint struct {
	dir         string
	filename    string
	logger      *slog.Logger
	middlewares []Middleware
	closers     []func()
}

type Option func(*Endpoint)

// WithLogger sets the logger used for server-side error reporting.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Endpoint) {
		e.logger = logger
	}
}

// NewEndpoint creates a new endpoint serving dir/filename.
// dir - directory the artifact lives in
// filename - name of the artifact; also its request path under "/"
// returns new instance of Endpoint
func NewEndpoint(dir, filename string, opts ...Option) *Endpoint {
	e := &Endpoint{
		dir:         dir,
		filename:    filename,
		logger:      slog.Default(),
		middlewares: make([]Middleware, 0),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Path returns the url path the endpoint is mounted on.
func (e *Endpoint) Path() string {
	return "/"
}

// Handler returns http.Handler for the endpoint
func (e *Endpoint) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", e.serveArtifact).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/"+e.filename, e.serveArtifact).Methods(http.MethodGet, http.MethodHead)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return e.wrapMiddleware(router)
}

// serveArtifact streams the artifact's current bytes. A file that is missing
// or unreadable at request time is a deployment fault: the client gets a bare
// 404 and the details go to the server log.
func (e *Endpoint) serveArtifact(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(e.dir, e.filename)

	f, err := os.Open(name)
	if err != nil {
		e.logger.Error("artifact unavailable",
			slog.String("file", name),
			slog.String("remote", r.RemoteAddr),
			slog.Any("error", err),
		)
		http.Error(w, "Not Found", http.StatusNotFound)

		return
	}

	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		e.logger.Error("artifact unavailable",
			slog.String("file", name),
			slog.String("remote", r.RemoteAddr),
			slog.Any("error", err),
		)
		http.Error(w, "Not Found", http.StatusNotFound)

		return
	}

	w.Header().Set("Content-Type", contentType(e.filename))
	http.ServeContent(w, r, e.filename, info.ModTime(), f)
}

// Use adds middleware to endpoint
func (e *Endpoint) Use(middleware Middleware) {
	e.middlewares = append(e.middlewares, middleware)
}

// OnClose registers a function to run when the endpoint is closed. Used to
// release resources held by middleware, like the lockout cache.
func (e *Endpoint) OnClose(fn func()) {
	e.closers = append(e.closers, fn)
}

// Close releases resources registered with OnClose.
func (e *Endpoint) Close(_ ...context.Context) error {
	for _, closer := range e.closers {
		closer()
	}

	return nil
}

// contentType infers the artifact's content type from its extension, falling
// back to opaque bytes for extensions the platform's mime table doesn't know.
func contentType(name string) string {
	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		return ctype
	}

	return "application/octet-stream"
}

// wrapMiddleware applies middlewares to handler
func (e *Endpoint) wrapMiddleware(handler http.Handler) http.Handler {
	for i := len(e.middlewares) - 1; i >= 0; i-- {
		handler = e.middlewares[i](handler)
	}

	return handler
}
