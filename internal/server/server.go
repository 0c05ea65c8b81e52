package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kapu/video-sentiment-ranker/internal/config"
	"github.com/kapu/video-sentiment-ranker/internal/domain"
	"github.com/kapu/video-sentiment-ranker/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type rankingService interface {
	Rank(ctx context.Context, topic string, videosLimit, commentsPerVideo int) (*domain.RankedResult, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *zap.Logger

	ranker       rankingService
	gate         *AccessGate
	httpMetrics  *metrics.HTTPMetrics
	gatherer     prometheus.Gatherer
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer registers HTTP metrics on reg and serves gatherer on /metrics.
// Pass the same registry for both unless the defaults are used.
func NewServer(cfg *config.Config, ranker rankingService, healthChecks []HealthCheck, reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler(logger)

	srv := &Server{
		echo:         e,
		config:       cfg,
		logger:       logger,
		ranker:       ranker,
		gate:         NewAccessGate(cfg.Access.Secret),
		httpMetrics:  metrics.NewHTTPMetrics(reg),
		gatherer:     gatherer,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("port", s.config.Server.Port))
	if err := s.echo.Start(":" + s.config.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
