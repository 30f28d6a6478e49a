package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tabvault/tabvault/internal/logger"
)

// HTTPServer wraps net/http with start/stop lifecycle management.
type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewHTTPServer builds an HTTPServer serving handler on addr.
func NewHTTPServer(addr string, handler http.Handler, log *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Run blocks serving requests until Shutdown is called.
func (s *HTTPServer) Run() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
