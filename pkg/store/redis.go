package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datalens-ai/datalens/pkg/models"
)

const redisKeyPrefix = "datalens:executions:"

// RedisStore keeps execution snapshots in Redis so observers in other
// processes can read them. Retention is enforced by key TTL instead of the
// sweeper; EvictExpired is therefore a no-op here.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, execution *models.Execution) error {
	payload, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	ok, err := s.client.SetNX(ctx, redisKey(execution.ID), payload, s.retention).Result()
	if err != nil {
		return fmt.Errorf("failed to store execution %s: %w", execution.ID, err)
	}

	if !ok {
		return fmt.Errorf("execution %s: %w", execution.ID, ErrExecutionAlreadyExists)
	}

	return nil
}

func (s *RedisStore) Update(ctx context.Context, execution *models.Execution) error {
	payload, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	ok, err := s.client.SetXX(ctx, redisKey(execution.ID), payload, s.retention).Result()
	if err != nil {
		return fmt.Errorf("failed to update execution %s: %w", execution.ID, err)
	}

	if !ok {
		return fmt.Errorf("execution %s: %w", execution.ID, ErrExecutionNotFound)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Execution, error) {
	payload, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("execution %s: %w", id, ErrExecutionNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution %s: %w", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(payload, &execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*models.Execution, error) {
	var (
		executions []*models.Execution
		cursor     uint64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan executions: %w", err)
		}

		for _, key := range keys {
			payload, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}

			if err != nil {
				return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
			}

			var execution models.Execution
			if err := json.Unmarshal(payload, &execution); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", key, err)
			}

			executions = append(executions, &execution)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return executions, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete execution %s: %w", id, err)
	}

	if deleted == 0 {
		return fmt.Errorf("execution %s: %w", id, ErrExecutionNotFound)
	}

	return nil
}

func (s *RedisStore) EvictExpired(_ context.Context, _ time.Duration) (int, error) {
	// Key TTL already enforces retention.
	return 0, nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}
