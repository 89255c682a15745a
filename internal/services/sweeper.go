package services

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired stories from a StoryStore
type Sweeper struct {
	store    *StoryStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper running every interval
func NewSweeper(store *StoryStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, ok := s.store.SweepExpired(ctx)
	if !ok {
		return
	}
	if removed > 0 {
		s.logger.Info("swept expired stories", "removed", removed)
	}
}
