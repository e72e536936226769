package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// CallbackServer serves a router on a local address until shut down.
type CallbackServer struct {
	httpServer *http.Server
	listener   net.Listener
	errs       chan error
}

// NewCallbackServer creates a server for handler on addr ("host:port").
func NewCallbackServer(addr string, handler http.Handler) *CallbackServer {
	return &CallbackServer{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		errs: make(chan error, 1),
	}
}

// Start binds the listener and serves in the background.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one when port 0 was requested.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Errors receives a serve error if the server stops unexpectedly.
func (s *CallbackServer) Errors() <-chan error {
	return s.errs
}

// Shutdown gracefully stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
