package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dosreb/planlibrary/app/controllers"
	"github.com/dosreb/planlibrary/app/repository"
	"github.com/dosreb/planlibrary/internal/pkg/cache"
	"github.com/dosreb/planlibrary/internal/pkg/constants"
	"github.com/dosreb/planlibrary/internal/pkg/database"
	"github.com/dosreb/planlibrary/internal/pkg/env"
	"github.com/dosreb/planlibrary/internal/pkg/jobqueue"
	"github.com/dosreb/planlibrary/internal/pkg/objectstore"
	"github.com/dosreb/planlibrary/internal/pkg/planlibrary"
	"github.com/dosreb/planlibrary/internal/pkg/router"
)

func main() {
	app, shutdown := NewApplication()

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("[Server] Listen failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("[Server] Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("[Server] Shutdown failed: %v", err)
	}
	shutdown()
}

// NewApplication wires stores, background workers and routes. The returned
// func releases everything that is not owned by the fiber app.
func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	log.SetLevel(parseLogLevel(env.GetEnv("LOG_LEVEL", "info")))

	database.SetupDatabase(database.LoadConfig())
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	libraryCfg := planlibrary.LoadConfig()
	var opts []planlibrary.Option

	orgs, err := planlibrary.ParseOrganizations(libraryCfg.Organizations)
	if err != nil {
		log.Warnf("[PlanLibrary] Ignoring organizations: %v", err)
	} else if len(orgs) > 0 {
		opts = append(opts, planlibrary.WithAudience(planlibrary.NewStaticAudience(orgs)))
	}

	cacheCfg := cache.LoadConfig()
	cacheUp := cacheCfg.Enabled && cache.SetupCache(cacheCfg)
	if cacheUp {
		opts = append(opts, planlibrary.WithCategoryCache(
			planlibrary.NewRedisCategoryCache(cache.GetClient(), libraryCfg.CategoryCacheTTL)))
	}

	var jobs *jobqueue.Manager
	storeCfg, err := objectstore.LoadConfig()
	if err != nil {
		log.Fatalf("[ObjectStore] Invalid configuration: %v", err)
	}
	if storeCfg.IsEnabled() {
		store, err := objectstore.NewClient(context.Background(), storeCfg)
		if err != nil {
			log.Errorf("[ObjectStore] Disabled, client setup failed: %v", err)
		} else {
			opts = append(opts, planlibrary.WithURLSigner(store))
			if cacheUp {
				jobs = jobqueue.NewManager(cache.GetClient(), jobqueue.LoadManagerConfig())
				jobs.GetQueue().Register(jobqueue.JobTypeStorageDelete, jobqueue.NewStorageDeleteHandler(store))
				jobs.Start()
				opts = append(opts, planlibrary.WithCleanupScheduler(jobs.GetQueue()))
			} else {
				log.Warn("[JobQueue] Cache unavailable, stored files of deleted plans are not cleaned up")
			}
		}
	}

	service := planlibrary.NewService(repos, libraryCfg, opts...)

	app := fiber.New(fiber.Config{
		AppName:   "plan-library",
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	deps := router.Dependencies{
		Service: service,
		Health:  controllers.NewHealthController(database.Ping, nil),
	}
	if cacheUp {
		deps.Health = controllers.NewHealthController(database.Ping, cache.Ping)
		deps.LimiterStorage = cache.NewFiberStorage(cacheCfg, cache.LimiterDatabase)
	}

	routerCfg := router.LoadConfig()
	routerCfg.DocsFile = findBasePath() + constants.OpenAPIFile

	// ROUTER
	router.InstallRouter(app, routerCfg, deps)

	shutdown := func() {
		if jobs != nil {
			jobs.Stop()
		}
		if err := cache.Close(); err != nil {
			log.Warnf("[Cache] Close failed: %v", err)
		}
	}
	return app, shutdown
}

// findBasePath locates the project root when started from cmd/planlibrary
func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/planlibrary to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + constants.OpenAPIFile); err == nil {
			return path
		}
	}
	return "./"
}

func parseLogLevel(raw string) log.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
