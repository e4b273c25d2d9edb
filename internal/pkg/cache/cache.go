package cache

import (
	"context"
	"fmt"

	"github.com/dosreb/planlibrary/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// Config holds the Redis (or Dragonfly) connection settings
type Config struct {
	// Enabled=false runs without Redis: no category cache, no job queue and
	// an in-memory rate limiter
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

func LoadConfig() Config {
	return Config{
		Enabled:  env.GetEnvBool("CACHE_ENABLED", true),
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     env.GetEnvInt("CACHE_PORT", 6379),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       env.GetEnvInt("CACHE_DB", 0),
	}
}

// SetupCache initializes the connection to the cache server and reports
// whether it answered a ping. A failed ping is logged; callers degrade to the
// database.
func SetupCache(cfg Config) bool {
	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to cache at %s:%d: %v", cfg.Host, cfg.Port, err)
		return false
	}
	log.Infof("[Cache] Successfully connected to cache: %s", pong)
	return true
}

// Ping checks the cache connection
func Ping(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("cache not initialized")
	}
	return client.Ping(ctx).Err()
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache(LoadConfig())
	}
	return client
}

// Enabled reports whether SetupCache ran
func Enabled() bool {
	return client != nil
}

// Close closes the client if one was opened
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
