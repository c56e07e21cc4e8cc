package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically evicts executions that outlived the retention window.
type Sweeper struct {
	store     ExecutionStore
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

func NewSweeper(store ExecutionStore, retention time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		logger:    logger.With("module", "store_sweeper"),
		cron:      cron.New(),
	}
}

// Start schedules the eviction sweep. Returns an error only for an invalid
// schedule, which would be a programming mistake.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@every 1m", s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	evicted, err := s.store.EvictExpired(ctx, s.retention)
	if err != nil {
		s.logger.Error("Failed to evict expired executions", "error", err)

		return
	}

	if evicted > 0 {
		s.logger.Info("Evicted expired executions", "count", evicted, "retention", s.retention)
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
