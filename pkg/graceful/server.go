package graceful

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server runs the engine's operational HTTP listener (health and metrics)
// and drains in-flight requests when its context is canceled.
type Server struct {
	srv          *http.Server
	log          *slog.Logger
	drainTimeout time.Duration
}

func NewServer(log *slog.Logger, srv *http.Server, drainTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{srv: srv, log: log, drainTimeout: drainTimeout}
}

// ListenAndServe blocks until ctx is canceled, then gives in-flight requests
// drainTimeout to finish before the listener is forced closed. A listener
// that fails to start surfaces its error immediately.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("ops endpoint listening", slog.String("addr", s.srv.Addr))
		serveErr <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.log.Info("draining ops endpoint", slog.Duration("timeout", s.drainTimeout))
	if err := s.srv.Shutdown(drainCtx); err != nil {
		s.log.Error("ops endpoint drain failed", slog.Any("error", err))
		return err
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
