package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/handlers"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/middleware"
	"github.com/soltixdb/homedash/internal/utils"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, cfg config.Config) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOriginList(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled))

	v1.Get("/schema", h.Schema)

	v1.Get("/dashboard", h.Dashboard)
	v1.Post("/dashboard", h.DashboardPost)
	v1.Get("/kpis", h.KPIs)

	v1.Get("/series", h.Series)
	v1.Get("/readings/recent", h.Recent)

	v1.Get("/export", h.Export)
	v1.Get("/reports/daily", h.DailyReport)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, cfg config.Config) *fiber.App {
	readTimeout, writeTimeout := cfg.Server.ReadTimeout, cfg.Server.WriteTimeout
	if readTimeout == 0 {
		readTimeout = utils.DefaultRequestTimeout
	}
	if writeTimeout == 0 {
		writeTimeout = utils.DefaultRequestTimeout
	}

	app := fiber.New(fiber.Config{
		AppName:               "HomeDash",
		DisableStartupMessage: true,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, h, cfg)

	return app
}
