package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPTimeouts bundles the per-connection deadlines for the API server.
type HTTPTimeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// HTTPServer wraps http.Server with graceful startup and shutdown.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds a server listening on addr with the given
// timeouts. Header reads get a fixed short deadline regardless.
func NewHTTPServer(addr string, handler http.Handler, timeouts HTTPTimeouts) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       timeouts.Read,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}}
}

// Start blocks serving requests until the listener closes.
func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
