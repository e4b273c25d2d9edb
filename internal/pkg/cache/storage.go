package cache

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"
)

// LimiterDatabase keeps rate limiter counters apart from cached data (DB 0)
const LimiterDatabase = 1

// NewFiberStorage returns a fiber.Storage on the cache server, used by the
// API rate limiter so that limits hold across instances.
func NewFiberStorage(cfg Config, database int) fiber.Storage {
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: database,
		Reset:    false,
	})
}
