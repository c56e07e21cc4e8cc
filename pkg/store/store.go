// Package store provides the process-wide execution store: the single
// shared-mutation point between concurrently running executions and their
// observers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/datalens-ai/datalens/pkg/models"
)

// Standard store error types that all implementations should use.
var (
	// ErrExecutionNotFound indicates no execution exists for the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionAlreadyExists indicates an execution with the same identifier already exists.
	ErrExecutionAlreadyExists = errors.New("execution already exists")
)

// ExecutionStore maps execution identifiers to their live or completed
// state. Entries are created on submission, updated only by the engine
// owning that execution (single-writer invariant) and read by any
// subscriber. Reads return snapshots, never the engine's mutable copy.
type ExecutionStore interface {
	Create(ctx context.Context, execution *models.Execution) error
	Update(ctx context.Context, execution *models.Execution) error
	Get(ctx context.Context, id string) (*models.Execution, error)
	List(ctx context.Context) ([]*models.Execution, error)
	Delete(ctx context.Context, id string) error

	// EvictExpired removes terminal executions whose run ended more than
	// retention ago and returns how many were evicted.
	EvictExpired(ctx context.Context, retention time.Duration) (int, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsExecutionNotFound checks if an error indicates a missing execution.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}
