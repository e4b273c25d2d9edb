package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// PingFunc checks a dependency
type PingFunc func(ctx context.Context) error

// HealthController reports whether the service can reach its stores. The
// database is required; the cache is optional.
type HealthController struct {
	database PingFunc
	cache    PingFunc
	timeout  time.Duration
}

func NewHealthController(database, cache PingFunc) *HealthController {
	return &HealthController{database: database, cache: cache, timeout: 2 * time.Second}
}

// HandleHealth answers 200 when the database responds and 503 otherwise
func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), hc.timeout)
	defer cancel()

	status := fiber.StatusOK
	body := fiber.Map{"status": "ok", "database": "ok", "cache": "disabled"}

	if err := hc.database(ctx); err != nil {
		log.Warnf("[Health] Database check failed: %v", err)
		status = fiber.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["database"] = "unavailable"
	}
	if hc.cache != nil {
		body["cache"] = "ok"
		if err := hc.cache(ctx); err != nil {
			log.Warnf("[Health] Cache check failed: %v", err)
			body["cache"] = "unavailable"
		}
	}
	return c.Status(status).JSON(body)
}
