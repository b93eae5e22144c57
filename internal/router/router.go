package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/soltixdb/cets/internal/config"
	"github.com/soltixdb/cets/internal/handlers"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/metrics"
	"github.com/soltixdb/cets/internal/middleware"
	"github.com/soltixdb/cets/internal/services"
)

// Dependencies are the services behind the routes. Jobs and Metrics may be nil.
type Dependencies struct {
	Correlation *services.CorrelationService
	Jobs        *services.JobService
	Metrics     *metrics.Registry
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, deps Dependencies, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, deps.Correlation, deps.Jobs)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
		ExposeHeaders: "X-Request-ID,Location",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Probes (no auth required)
	app.Get("/health", h.Health)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	v1.Get("/testers", h.ListTesters)

	correlate := h.Correlate
	if cfg.Server.RequestTimeout > 0 {
		correlate = timeout.NewWithContext(h.Correlate, cfg.Server.RequestTimeout)
	}
	v1.Post("/correlate", correlate)

	v1.Post("/jobs", h.SubmitJob)
	v1.Get("/jobs/:id", h.GetJob)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, deps Dependencies, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "CETS Router",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, deps, cfg)

	return app
}
