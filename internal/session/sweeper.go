package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper runs Manager.Sweep on a fixed interval.
type Sweeper struct {
	scheduler *gocron.Scheduler
	manager   *Manager
	logger    *slog.Logger
}

// NewSweeper creates a Sweeper for manager.
func NewSweeper(manager *Manager, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Sweeper{
		scheduler: s,
		manager:   manager,
		logger:    logger,
	}
}

// Start schedules the sweep every interval without blocking. The sweep stops
// when ctx is done or Stop is called.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid sweep interval %s", interval)
	}
	if _, err := s.scheduler.Every(interval).Do(s.sweep, ctx); err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("expiry sweep started", "interval", interval)
	return nil
}

// Stop terminates the schedule.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.manager.Sweep(ctx); err != nil {
		s.logger.Warn("expiry sweep was not fully saved", "error", err)
	}
}
