/*
PURPOSE:
  Read-only HTTP query surface over the results aggregator.
  Every endpoint is a thin pass-through to one Aggregator operation.

REQUIREMENTS:
  User-specified:
  - Endpoints for combinations, parameters, filtered data, comparison,
    hierarchical tree and summary statistics.

  Implementation-discovered:
  - An explicit reload endpoint lets clients refresh after a driver run
    without browsing the tree.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/results, internal/metrics, github.com/gin-gonic/gin
  - Exposes Prometheus metrics on /metrics.

ERROR HANDLING:
  - 400 for malformed query parameters or bodies.
  - 404 when stats are requested on an empty dataset.
  - 500 when the results directory cannot be re-scanned.

IMPLEMENTATION RULES:
  - No state beyond the aggregator; handlers never mutate its snapshot.

USAGE:
  srv := server.New(agg)
  err := srv.ListenAndServe(ctx, ":8000")

SELF-HEALING INSTRUCTIONS:
  - Route table lives in routes.go.

RELATED FILES:
  - internal/server/handlers.go
  - internal/results/aggregator.go

MAINTENANCE:
  - Update when the charting UI needs new endpoints.
*/

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daryltucker/forest-bench/internal/metrics"
	"github.com/daryltucker/forest-bench/internal/output"
	"github.com/daryltucker/forest-bench/internal/results"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	agg    *results.Aggregator
	logger *slog.Logger
	router *gin.Engine
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

func New(agg *results.Aggregator, opts ...Option) *Server {
	s := &Server{agg: agg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = output.Logger
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting query server", "addr", addr, "results", s.agg.Root())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down query server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(ctx.Request.Method, route, ctx.Writer.Status(), time.Since(start))
		logger.Info("Request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
