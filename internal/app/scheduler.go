package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tgcrm/internal/config"
	"tgcrm/internal/database"
	"tgcrm/internal/poller"
)

// Scheduler drives the recurring background work: the Telegram poll
// cycle and periodic database maintenance.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.Config
	poller    *poller.Poller
	store     database.Store
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a gocron-backed scheduler. It returns an error
// only if the underlying scheduler cannot be constructed, which gocron
// reserves for time zone loading failures.
func NewScheduler(logger *slog.Logger, cfg *config.Config, p *poller.Poller, store database.Store) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		poller:    p,
		store:     store,
	}, nil
}

// Start registers the jobs and begins ticking. The poll job runs in
// singleton mode so a slow long-poll cycle is never overlapped by the
// next tick.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.Telegram.PollInterval),
		gocron.NewTask(func(ctx context.Context) {
			if err := s.poller.Run(ctx); err != nil {
				s.logger.Error("Poll cycle failed", "error", err)
			}
		}),
		gocron.WithName("telegram_poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	if s.cfg.Scheduler.MaintenanceSchedule != "" {
		_, err := s.scheduler.NewJob(
			gocron.CronJob(s.cfg.Scheduler.MaintenanceSchedule, true),
			gocron.NewTask(func(ctx context.Context) {
				s.logger.Info("Running database maintenance")
				start := time.Now()
				if err := s.store.RunSQLMaintenance(ctx); err != nil {
					s.logger.Error("Database maintenance failed", "error", err)
					return
				}
				s.logger.Info("Finished database maintenance", "duration", time.Since(start))
			}),
			gocron.WithName("db_maintenance"),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule maintenance job: %w", err)
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started",
		"poll_interval", s.cfg.Telegram.PollInterval,
		"maintenance_schedule", s.cfg.Scheduler.MaintenanceSchedule)

	return nil
}

// Stop shuts the scheduler down, waiting for in-flight jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
