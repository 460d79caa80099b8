package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"

	"bert-gateway/middleware"
	"bert-gateway/services"
)

// AppOptions configures the HTTP gateway
type AppOptions struct {
	Name            string
	Version         string
	ProxyHeader     string
	BodyLimit       int
	RateLimitMax    int
	RateLimitWindow time.Duration
	XRayEnabled     bool
	XRayServiceName string
	Logger          *logrus.Entry
}

// Services are the components behind the routes. History and Scripts are
// optional.
type Services struct {
	Executions *services.ExecutionService
	Jobs       *services.JobQueue
	Sessions   services.SessionStore
	History    ExecutionHistory
	Scripts    services.StorageService
}

// NewApp builds the Fiber app with middleware and every route registered
func NewApp(opts AppOptions, svc Services) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		ProxyHeader:           opts.ProxyHeader,
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(opts.Logger.WithField("component", "http")))
	if opts.XRayEnabled {
		app.Use(middleware.XRayMiddleware(opts.XRayServiceName, opts.Logger.WithField("component", "xray")))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-User-ID",
	}))

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	health := NewHealthHandler(opts.Version, svc.Executions.Languages)
	app.Get("/health", health.Health)

	api := app.Group("/api")
	api.Get("/health", health.Health)
	api.Use(middleware.RateLimit(opts.RateLimitMax, opts.RateLimitWindow, opts.Logger.WithField("component", "ratelimit")))

	functionHandler := NewFunctionHandler(svc.Executions, svc.History)
	api.Post("/functions/execute", functionHandler.Execute)
	api.Get("/functions", functionHandler.ListFunctions)
	if svc.History != nil {
		api.Get("/executions", functionHandler.ListExecutions)
	}

	if svc.Scripts != nil {
		scriptHandler := NewScriptHandler(svc.Scripts)
		api.Get("/scripts/*", scriptHandler.GetScript)
		api.Delete("/scripts/*", scriptHandler.DeleteScript)
	}

	if svc.Sessions != nil {
		sessionHandler := NewSessionHandler(svc.Sessions)
		api.Post("/sessions", sessionHandler.CreateSession)
	}

	if svc.Jobs != nil {
		jobHandler := NewJobHandler(svc.Jobs)
		api.Post("/jobs", jobHandler.CreateJob)
		api.Get("/jobs/:jobId", jobHandler.GetJob)
	}

	return app
}
