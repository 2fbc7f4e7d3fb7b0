// Package retention periodically deletes stored messages older than the
// configured retention window.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes messages older than the given age.
type Purger interface {
	PurgeOlderThan(age time.Duration) (int64, error)
}

// Worker runs retention purges on a fixed interval.
type Worker struct {
	store    Purger
	age      time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker that purges messages older than age every
// interval. If interval is <= 0, it defaults to 6h.
func NewWorker(store Purger, age, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Worker{
		store:    store,
		age:      age,
		interval: interval,
		logger:   slog.Default(),
	}
}

// Run purges on the configured interval until ctx is cancelled. The first
// purge happens immediately so a long-stopped daemon catches up on start.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := w.RunOnce(); err != nil {
			w.logger.Error("retention purge failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

// RunOnce performs a single purge.
func (w *Worker) RunOnce() error {
	deleted, err := w.store.PurgeOlderThan(w.age)
	if err != nil {
		return err
	}
	if deleted > 0 {
		w.logger.Info("retention purge completed", "deleted", deleted, "older_than", w.age)
	}
	return nil
}
