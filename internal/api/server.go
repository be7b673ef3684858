package api

import (
	"context"
	"net/http"
	"time"
)

// Server wraps the HTTP server exposing the webhook endpoint.
type Server struct {
	handler http.Handler
	server  *http.Server
}

// NewServer creates a server for the given dependencies.
func NewServer(deps Deps) *Server {
	return &Server{handler: SetupRoutes(deps)}
}

// ListenAndServe starts the HTTP server. Webhook bodies are small and every
// request is bounded by the processing timeout, so the timeouts stay tight.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
