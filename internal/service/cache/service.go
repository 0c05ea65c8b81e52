package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kapu/video-sentiment-ranker/internal/domain"
	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

const searchKeyPrefix = "ranker:search:"

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return NewCacheServiceFromClient(client, logger), nil
}

// NewCacheServiceFromClient wraps an existing client without pinging it.
func NewCacheServiceFromClient(client *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		client: client,
		logger: logger,
	}
}

// SearchKey scopes cached results by topic and effective limit, so a
// narrower request never receives a wider cached list.
func SearchKey(normalizedTopic string, limit int64) string {
	return fmt.Sprintf("%s%d:%s", searchKeyPrefix, limit, normalizedTopic)
}

// GetSearchResults reports a miss for absent keys and for any Redis or
// decoding failure.
func (c *CacheService) GetSearchResults(ctx context.Context, key string) ([]domain.VideoCandidate, bool) {
	var videos []domain.VideoCandidate
	found, err := c.getJSON(ctx, key, &videos)
	if err != nil {
		c.logger.Warn("Search cache lookup failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return videos, found
}

// SetSearchResults is best effort. Failures are logged and dropped.
func (c *CacheService) SetSearchResults(ctx context.Context, key string, videos []domain.VideoCandidate, ttl time.Duration) {
	if err := c.setJSON(ctx, key, videos, ttl); err != nil {
		c.logger.Warn("Failed to cache search results", zap.String("key", key), zap.Error(err))
	}
}

func (c *CacheService) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCacheError("get failed", "get", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, apperrors.NewCacheError("decode failed", "get", key, err)
	}
	return true, nil
}

func (c *CacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("encode failed", "set", key, err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return apperrors.NewCacheError("set failed", "set", key, err)
	}
	return nil
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}

// Ping backs the readiness check.
func (c *CacheService) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewCacheError("ping failed", "ping", "", err)
	}
	return nil
}
