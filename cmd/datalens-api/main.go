// Package main provides the DataLens API server implementation.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/datalens-ai/datalens/pkg/cmd"
	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/log"
	"github.com/datalens-ai/datalens/pkg/otelhelper"
	"github.com/datalens-ai/datalens/pkg/registry"
	"github.com/datalens-ai/datalens/pkg/store"
	"github.com/datalens-ai/datalens/pkg/workflow"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "datalens-api",
		Usage:                 "Answer analytical questions over documents and databases",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the workflow configuration file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "Execution store URL (redis://... selects Redis, empty selects in-memory)",
				Sources: cli.EnvVars("STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Relational database URL for structured queries",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "vector-database-url",
				Usage:   "Vector database URL for document retrieval",
				Sources: cli.EnvVars("VECTOR_DATABASE_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing (exports via OTLP/HTTP)",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing DataLens API")

			cfg := config.LoadOrDefault(command.String("config"))

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			executionStore := cmd.NewExecutionStore(command.String("store-url"), cfg.Store.Retention)
			defer func() {
				if err := executionStore.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close execution store", "error", err)
				}
			}()

			if memStore, ok := executionStore.(*store.MemoryStore); ok {
				sweeper := store.NewSweeper(memStore, cfg.Store.Retention, logger)
				if err := sweeper.Start(); err != nil {
					return err
				}
				defer sweeper.Stop()
			}

			deps := cmd.NewDependencies(
				ctx,
				logger,
				cfg,
				command.String("database-url"),
				command.String("vector-database-url"),
			)

			reg := registry.NewRegistry(logger)
			reg.RegisterDefaultNodes()

			engine, err := workflow.NewEngine(logger, executionStore, eventBus, reg, deps, cfg)
			if err != nil {
				return err
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "datalens-api")
				if err != nil {
					return err
				}

				engine = engine.WithTracer(tracer)
			}

			defer func() {
				if err := engine.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close workflow engine", "error", err)
				}
			}()

			api := NewAPI(logger, engine)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
