// Package server exposes the interview turn protocol over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spigell/interview-conductor/internal/interview"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	readTimeout = 30 * time.Second
	// Model calls can take a while; the write timeout covers the whole turn.
	writeTimeout    = 5 * time.Minute
	idleTimeout     = 2 * time.Minute
	shutdownTimeout = 10 * time.Second

	defaultMaxLogLength = 200
)

type Server struct {
	registry  *interview.Registry
	logger    *zap.Logger
	maxLogLen int
}

func New(registry *interview.Registry, logger *zap.Logger, maxLogLength int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Server{
		registry:  registry,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Router assembles the chi router for the turn protocol.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Post("/ask", s.handleAsk)
	r.Get("/session/{sessionID}", s.handleSessionStatus)
	r.Delete("/session/{sessionID}", s.handleSessionDelete)

	return r
}

// Run serves until the context is canceled, then drains the registry and
// shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.registry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
