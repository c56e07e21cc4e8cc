package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/datalens-ai/datalens/pkg/models"
)

// MemoryStore is the default single-process execution store. Writes for one
// execution come only from its owning engine goroutine; the mutex serializes
// them against concurrent snapshot reads from subscribers.
type MemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*models.Execution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		executions: make(map[string]*models.Execution),
	}
}

func (s *MemoryStore) Create(_ context.Context, execution *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.executions[execution.ID]; exists {
		return fmt.Errorf("execution %s: %w", execution.ID, ErrExecutionAlreadyExists)
	}

	s.executions[execution.ID] = execution.Clone()

	return nil
}

func (s *MemoryStore) Update(_ context.Context, execution *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.executions[execution.ID]; !exists {
		return fmt.Errorf("execution %s: %w", execution.ID, ErrExecutionNotFound)
	}

	s.executions[execution.ID] = execution.Clone()

	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	execution, exists := s.executions[id]
	if !exists {
		return nil, fmt.Errorf("execution %s: %w", id, ErrExecutionNotFound)
	}

	return execution.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	executions := make([]*models.Execution, 0, len(s.executions))
	for _, execution := range s.executions {
		executions = append(executions, execution.Clone())
	}

	return executions, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.executions[id]; !exists {
		return fmt.Errorf("execution %s: %w", id, ErrExecutionNotFound)
	}

	delete(s.executions, id)

	return nil
}

func (s *MemoryStore) EvictExpired(_ context.Context, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention)
	evicted := 0

	for id, execution := range s.executions {
		if execution.Status.Terminal() && execution.EndedAt != nil && execution.EndedAt.Before(cutoff) {
			delete(s.executions, id)

			evicted++
		}
	}

	return evicted, nil
}

func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions = make(map[string]*models.Execution)

	return nil
}
