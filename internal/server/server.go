// Package server exposes the pipeline as an HTTP download proxy.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures a Server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	Pipeline        *core.Pipeline
	Logger          *logging.Logger
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// Server is the HTTP proxy.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	pipeline        *core.Pipeline
	log             *logging.Logger
	router          *chi.Mux
	metrics         http.Handler
}

// New creates a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = core.DefaultShutdownTimeout
	}

	s := &Server{
		addr:            opts.Addr,
		shutdownTimeout: opts.ShutdownTimeout,
		pipeline:        opts.Pipeline,
		log:             opts.Logger.WithComponent("server"),
		router:          chi.NewRouter(),
		metrics:         opts.Metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(s.log))
	s.router.Use(recoverPanics(s.log))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/download", s.handleDownload)
	s.router.Get("/github/{owner}/{repo}", s.handleGitHub)

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully, letting in-flight runs finish their cleanup.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
