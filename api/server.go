// Package api serves the status endpoints of a running detection loop.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/redscan/controller"
	"github.com/nvr-ai/redscan/profiler"
)

// StatsProvider reports the progress of the loop.
type StatsProvider interface {
	Stats() controller.Summary
}

// ProfileProvider reports the stage timings.
type ProfileProvider interface {
	Snapshot() profiler.Snapshot
}

// Options configures the server.
type Options struct {
	Port   int
	RunID  string
	Source string
}

// Server is the HTTP status server.
type Server struct {
	opts    Options
	stats   StatsProvider
	profile ProfileProvider
	logger  zerolog.Logger

	router *gin.Engine
	server *http.Server
}

// NewServer builds the router. Call Start to listen.
//
// Arguments:
//   - opts: Port and the identifiers reported by the endpoints.
//   - stats: Source of the loop summary.
//   - profile: Source of the stage timings.
//   - logger: Request log destination.
//
// Returns:
//   - *Server: The configured server.
func NewServer(opts Options, stats StatsProvider, profile ProfileProvider, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:    opts,
		stats:   stats,
		profile: profile,
		logger:  logger,
		router:  gin.New(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Int("port", s.opts.Port).Msg("Starting status server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "status server")
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Stopping status server")
	return s.server.Shutdown(ctx)
}
