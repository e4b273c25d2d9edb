package router

import (
	"github.com/dosreb/planlibrary/app/controllers"
	"github.com/dosreb/planlibrary/internal/pkg/constants"
	"github.com/dosreb/planlibrary/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	cfg  Config
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        h.cfg.RateLimit,
		Expiration: h.cfg.RateWindow,
		Storage:    h.deps.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "too many requests",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group(constants.APIv1Route)
	library := v1.Group(constants.PlanLibraryRoute, middleware.ActorMiddleware)
	if h.cfg.RequireActor {
		library.Use(middleware.RequireActor)
	}
	controllers.NewPlanLibraryController(h.deps.Service).RegisterRoutes(library)
}

func NewApiRouter(cfg Config, deps Dependencies) *ApiRouter {
	return &ApiRouter{cfg: cfg, deps: deps}
}
