package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nvr-ai/redscan/controller"
	"github.com/nvr-ai/redscan/profiler"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
	Reason string `json:"reason"`
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	RunID   string             `json:"run_id"`
	Source  string             `json:"source"`
	Summary controller.Summary `json:"summary"`
	Profile profiler.Snapshot  `json:"profile"`
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)
	s.router.GET("/stats", s.statistics)
}

// health reports "running" while frames are being processed and "stopped"
// once the loop has exited.
func (s *Server) health(c *gin.Context) {
	summary := s.stats.Stats()
	status := "running"
	if summary.Reason != controller.Running {
		status = "stopped"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status: status,
		RunID:  s.opts.RunID,
		Reason: summary.Reason.String(),
	})
}

func (s *Server) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		RunID:   s.opts.RunID,
		Source:  s.opts.Source,
		Summary: s.stats.Stats(),
		Profile: s.profile.Snapshot(),
	})
}
