package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/video-sentiment-ranker/internal/constants"
)

type Config struct {
	Server  ServerConfig
	Access  AccessConfig
	YouTube YouTubeConfig
	Ranking RankingConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port string
}

type AccessConfig struct {
	Secret string
}

type YouTubeConfig struct {
	APIKey string
}

type RankingConfig struct {
	DefaultVideosLimit      int
	DefaultCommentsPerVideo int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
		},
		Access: AccessConfig{
			Secret: getEnv("SERVICE_API_SECRET", ""),
		},
		YouTube: YouTubeConfig{
			APIKey: getEnv("YOUTUBE_API_KEY", ""),
		},
		Ranking: RankingConfig{
			DefaultVideosLimit:      getEnvInt("DEFAULT_VIDEOS_LIMIT", 5),
			DefaultCommentsPerVideo: getEnvInt("DEFAULT_COMMENTS_PER_VIDEO", 50),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("SEARCH_CACHE_TTL_SECONDS", int(constants.CacheTTL.SearchResults.Seconds()))) * time.Second,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate requires both credentials. The access secret has no default.
func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}
	if c.Access.Secret == "" {
		return fmt.Errorf("SERVICE_API_SECRET is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Ranking.DefaultVideosLimit < 1 {
		return fmt.Errorf("DEFAULT_VIDEOS_LIMIT must be at least 1")
	}
	if c.Ranking.DefaultCommentsPerVideo < 1 {
		return fmt.Errorf("DEFAULT_COMMENTS_PER_VIDEO must be at least 1")
	}
	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL_SECONDS must be positive when REDIS_ENABLED")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
