package router

import (
	"os"

	"github.com/dosreb/planlibrary/internal/pkg/constants"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

type HttpRouter struct {
	cfg  Config
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if h.deps.Health != nil {
		app.Get(constants.HealthRoute, h.deps.Health.HandleHealth)
	}

	// fiber metrics
	if h.cfg.MetricsPassword != "" {
		app.Get(constants.MetricsRoute, basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.cfg.MetricsUser: h.cfg.MetricsPassword,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	if h.cfg.DocsFile != "" {
		if _, err := os.Stat(h.cfg.DocsFile); err != nil {
			log.Warnf("[Router] API docs disabled, %s not readable: %v", h.cfg.DocsFile, err)
			return
		}
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsRoute,
			FilePath: h.cfg.DocsFile,
			Path:     "v1",
		}))
	}
}

func NewHttpRouter(cfg Config, deps Dependencies) *HttpRouter {
	return &HttpRouter{cfg: cfg, deps: deps}
}
