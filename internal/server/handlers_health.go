package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kapu/video-sentiment-ranker/internal/constants"
	"github.com/labstack/echo/v4"
	"github.com/sourcegraph/conc/pool"
)

// HealthCheck is a named health check function. Details, when set, is
// included in the readiness body under the check's name.
type HealthCheck struct {
	Name    string
	Check   func(ctx context.Context) error
	Details func() any
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs all checks concurrently and reports the first failing
// one in registration order.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), constants.ServerConfig.ReadinessTimeout)
	defer cancel()

	failures := make([]error, len(s.healthChecks))
	p := pool.New().WithMaxGoroutines(max(len(s.healthChecks), 1))
	for i, hc := range s.healthChecks {
		p.Go(func() {
			failures[i] = hc.Check(ctx)
		})
	}
	p.Wait()

	for i, err := range failures {
		if err == nil {
			continue
		}

		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": s.healthChecks[i].Name,
			"error":        err.Error(),
		}
		if details := s.checkDetails(); len(details) > 0 {
			response["checks"] = details
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	response := map[string]any{"status": "ready"}
	if details := s.checkDetails(); len(details) > 0 {
		response["checks"] = details
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) checkDetails() map[string]any {
	details := make(map[string]any)
	for _, hc := range s.healthChecks {
		if hc.Details != nil {
			details[hc.Name] = hc.Details()
		}
	}
	return details
}
