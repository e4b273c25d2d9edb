package router

import (
	"time"

	"github.com/dosreb/planlibrary/app/controllers"
	"github.com/dosreb/planlibrary/internal/pkg/env"
	"github.com/dosreb/planlibrary/internal/pkg/planlibrary"
	"github.com/gofiber/fiber/v2"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Config holds the HTTP surface settings
type Config struct {
	RateLimit       int
	RateWindow      time.Duration
	RequireActor    bool
	MetricsUser     string
	MetricsPassword string
	// DocsFile is the OpenAPI document; the docs UI is skipped when empty
	DocsFile string
}

func LoadConfig() Config {
	return Config{
		RateLimit:       env.GetEnvInt("API_RATE_LIMIT", 120),
		RateWindow:      env.GetEnvDuration("API_RATE_WINDOW", time.Minute),
		RequireActor:    env.GetEnvBool("API_REQUIRE_ACTOR", false),
		MetricsUser:     env.GetEnv("METRICS_USER", "admin"),
		MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
	}
}

// Dependencies are the collaborators the routers hand to controllers
type Dependencies struct {
	Service *planlibrary.Service
	Health  *controllers.HealthController
	// LimiterStorage backs the rate limiter; nil keeps counters in memory
	LimiterStorage fiber.Storage
}

func InstallRouter(app *fiber.App, cfg Config, deps Dependencies) {
	// HttpRouter first so /health and /metrics stay outside the API limiter
	setup(app, NewHttpRouter(cfg, deps), NewApiRouter(cfg, deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
