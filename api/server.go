// Package api provides the HTTP retrieval surface for legisgraph.
//
// Endpoints:
//
//	POST /chat          question → grounded answer with citations
//	POST /grade-answer  student answer → evaluation
//	POST /search        query → semantic search results
//	GET  /health        corpus statistics
//	GET  /ready         readiness probe (database ping)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, request id, logging)
//   - chat.go: chat, grading and search endpoints
//   - health.go: health and readiness endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/legisgraph/legisgraph/internal/composer"
	"github.com/legisgraph/legisgraph/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8088"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation against a local model can be slow, so it is generous.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the legisgraph retrieval API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	chat   *ChatHandler
	health *HealthHandler
}

// Deps carries everything the handlers need.
type Deps struct {
	Router     ContextRouter
	Composer   *composer.Composer
	Store      Store
	Embedder   Embedder
	Pool       *pgxpool.Pool
	Project    string
	EmbedModel string
	GenModel   string
	TopK       int
	Logger     log.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: deps.Logger,
		chat: NewChatHandler(deps.Router, deps.Composer, deps.Store, deps.Embedder,
			deps.Project, deps.TopK, deps.Logger),
		health: NewHealthHandler(deps.Store, deps.Pool, deps.Project,
			deps.EmbedModel, deps.GenModel, deps.Logger),
	}

	s.chat.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → request id → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
