// Package server exposes the adhook operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/manash/adhook/internal/logger"
)

type Server struct {
	httpServer      *http.Server
	svc             Service
	log             *logger.Logger
	shutdownTimeout time.Duration
}

func New(addr string, handler http.Handler, svc Service, log *logger.Logger, shutdownTimeout time.Duration) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:             svc,
		log:             log.With("service", "HTTPServer"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then stops accepting requests and
// waits for in-flight requests and background tasks.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if s.svc != nil {
		if err := s.svc.Drain(shutdownCtx); err != nil {
			s.log.Warn("Background tasks abandoned", "error", err)
			return err
		}
	}
	s.log.Info("Stopped")
	return nil
}
