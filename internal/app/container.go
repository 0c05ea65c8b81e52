package app

import (
	"context"
	"fmt"

	"github.com/kapu/video-sentiment-ranker/internal/config"
	"github.com/kapu/video-sentiment-ranker/internal/server"
	"github.com/kapu/video-sentiment-ranker/internal/service/cache"
	"github.com/kapu/video-sentiment-ranker/internal/service/ranking"
	"github.com/kapu/video-sentiment-ranker/internal/service/sentiment"
	"github.com/kapu/video-sentiment-ranker/internal/service/youtube"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Container bundles the assembled services behind the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Server *server.Server

	closers []func()
}

// Close releases infrastructure clients in reverse creation order.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles all services and returns a container with a ready-to-start
// server. Infrastructure created before a failure is released on error.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	return build(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	var healthChecks []server.HealthCheck
	ytConfig := youtube.ServiceConfig{
		APIKey:   cfg.YouTube.APIKey,
		CacheTTL: cfg.Redis.TTL,
	}

	// Search cache (optional)
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", cacheErr)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})

		ytConfig.Cache = cacheSvc
		healthChecks = append(healthChecks, server.HealthCheck{Name: "redis", Check: cacheSvc.Ping})
	}

	// YouTube Data API
	ytSvc, err := youtube.NewYouTubeService(ctx, ytConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	healthChecks = append(healthChecks, server.HealthCheck{
		Name:    "youtube_quota",
		Check:   ytSvc.CheckHealth,
		Details: func() any { return ytSvc.Status() },
	})

	// Ranking pipeline
	scorer := sentiment.NewVaderScorer(logger)
	aggregator := ranking.NewAggregator(ytSvc, ytSvc, scorer, logger)

	srv := server.NewServer(cfg, aggregator, healthChecks, reg, gatherer, logger)

	logger.Info("Application services assembled",
		zap.Bool("searchCache", cfg.Redis.Enabled),
		zap.Int("defaultVideosLimit", cfg.Ranking.DefaultVideosLimit),
		zap.Int("defaultCommentsPerVideo", cfg.Ranking.DefaultCommentsPerVideo))

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Server:  srv,
		closers: closers,
	}, nil
}
