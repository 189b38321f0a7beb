package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/onboard/internal/observability/logger"
)

// Server wraps the stdlib server with sane timeouts and graceful shutdown.
type Server struct {
	srv *http.Server
}

// NewServer builds a server for the handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Start serves until Shutdown; a clean close is not an error.
func (s *Server) Start() error {
	logger.With(logger.Component("http"), logger.String("addr", s.srv.Addr)).Info("server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
