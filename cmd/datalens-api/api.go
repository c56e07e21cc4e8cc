package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/datalens-ai/datalens/pkg/web"
	"github.com/datalens-ai/datalens/pkg/workflow"
)

type API struct {
	logger   *slog.Logger
	engine   *workflow.Engine
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	engine *workflow.Engine,
) *API {
	return &API{
		logger:   logger,
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("DataLens API")
	})

	app.Post("/queries", handlers.SubmitQuery)

	e := app.Group("/executions")
	e.Get("/", handlers.ListExecutions)
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/events", handlers.StreamEvents)
	e.Post("/:id/cancel", handlers.CancelExecution)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
