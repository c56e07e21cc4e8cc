// Package web provides the HTTP handlers for query submission and execution
// observation.
package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/datalens-ai/datalens/pkg/events"
	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/workflow"
)

// heartbeatInterval paces SSE keep-alive comments while a stream is quiet.
const heartbeatInterval = 30 * time.Second

type APIHandlers struct {
	engine    *workflow.Engine
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(engine *workflow.Engine, validate *validator.Validate, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		validator: validate,
		logger:    logger.With("module", "web"),
	}
}

// SubmitQuery accepts a query, starts its execution and returns the
// execution identifier without waiting for completion.
func (h *APIHandlers) SubmitQuery(c fiber.Ctx) error {
	var req SubmitQueryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	executionID, err := h.engine.Start(context.Background(), req.Query, req.DataSources.ToModel())
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(SubmitQueryResponse{
		ExecutionID: executionID,
		Status:      string(models.ExecutionStatusPending),
	})
}

// ListExecutions returns snapshots of all retained executions.
func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	executions, err := h.engine.Executions(context.Background())
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(ListExecutionsResponse{
		Executions: executions,
		TotalCount: len(executions),
	})
}

// GetExecution returns one execution snapshot.
func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.engine.Execution(context.Background(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(execution)
}

// CancelExecution requests cooperative cancellation; repeated cancels are
// no-ops.
func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	if err := h.engine.Cancel(context.Background(), id); err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"execution_id": id,
		"cancelled":    true,
	})
}

// StreamEvents serves one execution's event stream over SSE: retained history
// first, then live events, until the execution reaches a terminal state or
// the client disconnects.
func (h *APIHandlers) StreamEvents(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	if _, err := h.engine.Execution(context.Background(), id); err != nil {
		return handleEngineError(c, err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())

	ch, err := h.engine.Subscribe(streamCtx, id)
	if err != nil {
		cancel()

		return internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}

				if err := writeSSE(w, event); err != nil {
					return
				}

				switch event.GetType() {
				case events.ExecutionCompletedEvent, events.ExecutionFailedEvent:
					return
				}
			case <-time.After(heartbeatInterval):
				// Comment line keeps intermediaries from closing a quiet stream.
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}

				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}

// HealthCheck reports liveness of the engine's collaborators.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeSSE(w *bufio.Writer, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.GetType(), payload); err != nil {
		return err
	}

	return w.Flush()
}
