package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datalens-ai/datalens/pkg/store"
)

// NewExecutionStore creates an execution store from a storage URL. A
// redis:// URL selects the Redis backend; anything else gets the in-memory
// store, whose retention is enforced by the sweeper.
func NewExecutionStore(storageURL string, retention time.Duration) store.ExecutionStore {
	if strings.HasPrefix(storageURL, "redis://") || strings.HasPrefix(storageURL, "rediss://") {
		opts, err := redis.ParseURL(storageURL)
		if err != nil {
			panic(fmt.Errorf("invalid redis URL: %w", err))
		}

		return store.NewRedisStore(redis.NewClient(opts), retention)
	}

	return store.NewMemoryStore()
}
