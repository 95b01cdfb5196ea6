package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"
)

type testCtxKey string

type stubEndpoint struct {
	path    string
	handler http.Handler
	closed  bool
}

func (e *stubEndpoint) Path() string { return e.path }

func (e *stubEndpoint) Handler() http.Handler {
	if e.handler != nil {
		return e.handler
	}

	return http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})
}

func (e *stubEndpoint) Close(_ ...context.Context) error {
	e.closed = true
	return nil
}

func TestNewServer(t *testing.T) {
	addr := ":8443"
	server := NewServer(addr)

	if server.addr != addr {
		t.Errorf("Expected addr %s, but got %s", addr, server.addr)
	}

	if len(server.endpoints) != 0 {
		t.Errorf("Expected empty endpoints slice, but got %d endpoints", len(server.endpoints))
	}

	if server.mutex == nil {
		t.Error("Expected non-nil mutex")
	}

	server = NewServer("")

	if server.addr != ":8443" {
		t.Errorf("Expected default addr :8443, but got %s", server.addr)
	}
}

func TestServer_AddEndpoint(t *testing.T) {
	server := NewServer(":0")

	endpoint := &stubEndpoint{path: "/"}
	server.AddEndpoint(endpoint)

	if len(server.endpoints) != 1 {
		t.Errorf("Expected 1 endpoint, but got %d endpoints", len(server.endpoints))
	}

	if server.endpoints[0].Path() != "/" {
		t.Errorf("Expected endpoint path '/', but got '%s'", server.endpoints[0].Path())
	}
}

func TestServer_WithBaseContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), testCtxKey("test"), "test")

	server := NewServer(":0", WithBaseContext(ctx))

	if server.baseCtx == nil {
		t.Error("Expected non-nil base context")
	}

	if server.baseCtx.Value(testCtxKey("test")) != "test" {
		t.Errorf("Expected context value 'test', but got '%s'", server.baseCtx.Value(testCtxKey("test")))
	}
}

func TestServer_WithReadinessChan(t *testing.T) {
	ready := make(chan struct{})
	server := NewServer(":0", WithReadinessChan(ready))

	if server.ready == nil {
		t.Error("Expected non-nil channel")
	}

	close(server.ready)

	_, ok := <-ready
	if ok {
		t.Error("Expected closed channel")
	}
}

func TestServer_RunAndClose(t *testing.T) {
	ready := make(chan struct{})
	server := NewServer(":0", WithReadinessChan(ready))

	endpoint := &stubEndpoint{path: "/"}
	server.AddEndpoint(endpoint)

	done := make(chan struct{})

	go func() {
		if err := server.Run(); err != nil {
			t.Errorf("Got unexpected error: %v", err)
		}

		close(done)
	}()

	select {
	case <-ready:
	case <-time.After(1 * time.Second):
		t.Fatal("Server is expected to start")
	}

	if server.Addr() == nil {
		t.Error("Expected non-nil address for running server")
	}

	// Second Run must refuse while the first is still holding the lock.
	if err := server.Run(); err != ErrServerAlreadyRunning {
		t.Errorf("Expected ErrServerAlreadyRunning, got %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Got unexpected error on close: %v", err)
	}

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Server is expected to stop")
	}

	if !endpoint.closed {
		t.Error("Expected endpoint to be closed with the server")
	}
}

func TestServer_RunBindFailure(t *testing.T) {
	// Occupy a port, then ask the server to bind it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open blocking listener: %v", err)
	}

	defer l.Close()

	server := NewServer(l.Addr().String())

	if err := server.Run(); err == nil {
		t.Error("Expected bind error for occupied port")
	}
}

func TestServer_AddrWhenNotRunning(t *testing.T) {
	server := NewServer(":0")

	if server.Addr() != nil {
		t.Error("Expected nil address for server that is not running")
	}
}
