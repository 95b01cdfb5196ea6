// Package server provides the HTTP server that hosts the setup artifact
// endpoints.
//
// It wraps the standard http.Server with the small amount of lifecycle
// plumbing this system needs: a base context for all connections, a readiness
// channel for tests, and a Close that also shuts down the mounted endpoints.
// Per-connection concurrency, keep-alive and request parsing are left
// entirely to net/http.
//
// Usage:
//
//	s := server.NewServer(":8443")
//	s.AddEndpoint(script.NewEndpoint(dir, "setup.sh"))
//	err := s.Run()
//	if err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/syla-platform/setupserve"
	"golang.org/x/exp/slog"
)

var ErrServerAlreadyRunning = fmt.Errorf("server is already running")

type Server struct {
	baseCtx      context.Context
	listener     net.Listener
	listenerLock *sync.Mutex
	mutex        *sync.Mutex
	handler      *http.Server
	ready        chan<- struct{}
	addr         string
	endpoints    []setupserve.Endpoint
}

type Option func(*Server)

// WithReadinessChan sets ch to [Server] and will be closed once the [Server] is
// ready to accept connection. Typically used in testing after calling [Run]
// method and waiting for ch to close, before continuing with test logics.
func WithReadinessChan(ch chan<- struct{}) Option {
	return func(s *Server) {
		s.ready = ch
	}
}

// WithBaseContext optionally specifies based context that will be used for all connections.
// If not specified, context.Background() will be used.
func WithBaseContext(ctx context.Context) Option {
	if ctx == nil {
		panic("nil context")
	}

	return func(s *Server) {
		s.baseCtx = ctx
	}
}

// NewServer creates new instance of the setup server
// addr - address to listen on, defaults to the setup distribution port :8443
// returns new instance of Server
func NewServer(addr string, opts ...Option) *Server {
	if addr == "" {
		addr = ":8443"
	}

	server := &Server{
		addr:         addr,
		endpoints:    make([]setupserve.Endpoint, 0, 1),
		mutex:        &sync.Mutex{},
		listenerLock: &sync.Mutex{},
		baseCtx:      context.Background(),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.handler = &http.Server{
		Addr: addr,
		BaseContext: func(_ net.Listener) context.Context {
			return server.baseCtx
		},
	}

	return server
}

// AddEndpoint adds new endpoint to server
func (s *Server) AddEndpoint(endpoint setupserve.Endpoint) {
	s.endpoints = append(s.endpoints, endpoint)
}

// Run starts the server
// returns error if server is already running
// or if server fails to bind its listener
func (s *Server) Run() (err error) {
	if !s.mutex.TryLock() {
		return ErrServerAlreadyRunning
	}

	defer s.mutex.Unlock()

	mux := http.NewServeMux()

	for _, endpoint := range s.endpoints {
		mux.Handle(
			endpoint.Path(),
			endpoint.Handler(),
		)
	}

	s.handler.Handler = mux

	s.listenerLock.Lock()
	s.listener, err = net.Listen("tcp", s.addr)
	s.listenerLock.Unlock()

	if err != nil {
		return err
	}

	slog.Info("Starting setup server on " + s.listener.Addr().String())

	// Signals that server can accept connections
	if s.ready != nil {
		close(s.ready)
	}

	err = s.handler.Serve(s.listener)

	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Close shuts down the server and all its endpoints.
// It waits for all endpoints to be closed before returning.
// When a context is given the underlying http.Server drains gracefully until
// the context is canceled; otherwise in-flight responses are cut off, which
// is the best-effort shutdown this system promises.
func (s *Server) Close(ctx ...context.Context) error {
	done := make(chan error)

	go func() {
		defer close(done)

		if len(ctx) > 0 {
			done <- s.handler.Shutdown(ctx[0])
			return
		}

		done <- s.handler.Close()
	}()

	wg := sync.WaitGroup{}

	for _, endpoint := range s.endpoints {
		e := endpoint

		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := e.Close(ctx...); err != nil {
				slog.Error("Error shutting down endpoint:" + err.Error())
			}
		}()
	}

	wg.Wait()

	return <-done
}

// Addr returns the server's network address.
// If the server is not running, it returns nil.
func (s *Server) Addr() net.Addr {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}
