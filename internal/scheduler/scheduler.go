// Package scheduler runs the periodic housekeeping tasks on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/metrics"
)

// ErrUnknownTask is returned by RunNow for a name missing from the registry.
var ErrUnknownTask = errors.New("unknown scheduled task")

// TaskFunc is a scheduled task. It should respect ctx cancellation.
type TaskFunc func(ctx context.Context) error

// Scheduler manages scheduled tasks using gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       config.SchedulerConfig
	tasks     map[string]TaskFunc
	mu        sync.Mutex
	running   bool
	jobs      []string
}

// New creates a scheduler for the given task registry. Tasks are only
// scheduled by Start, according to cfg.
func New(log *slog.Logger, cfg config.SchedulerConfig, tasks map[string]TaskFunc) (*Scheduler, error) {
	if log == nil {
		log = logger.Discard()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		logger:    log.With("component", "scheduler"),
		cfg:       cfg,
		tasks:     tasks,
	}, nil
}

// Start schedules every enabled task and starts ticking. Tasks that are
// unknown, lack a schedule or carry an invalid cron expression are skipped.
// ctx is handed to every task run.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	names := make([]string, 0, len(s.cfg.Tasks))
	for name := range s.cfg.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		taskCfg := s.cfg.Tasks[name]
		if !taskCfg.Enabled {
			s.logger.InfoContext(ctx, "Skipping disabled task", "task_name", name)
			continue
		}
		if _, ok := s.tasks[name]; !ok {
			s.logger.WarnContext(ctx, "Scheduled task configured but not found in registry, skipping", "task_name", name)
			continue
		}
		if taskCfg.Schedule == "" {
			s.logger.WarnContext(ctx, "Scheduled task enabled but has empty schedule, skipping", "task_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(taskCfg.Schedule, true),
			gocron.NewTask(func(name string) {
				_ = s.run(ctx, name)
			}, name),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to schedule task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
			continue
		}

		s.logger.InfoContext(ctx, "Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
		s.jobs = append(s.jobs, name)
	}

	s.scheduler.Start()
	s.running = true
	s.logger.InfoContext(ctx, "Scheduler started", "tasks_scheduled", len(s.jobs))
	return nil
}

// Scheduled returns the names of the tasks registered by Start.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.jobs...)
}

// RunNow runs a registered task once, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	if _, ok := s.tasks[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.run(ctx, name)
}

func (s *Scheduler) run(ctx context.Context, name string) error {
	s.logger.DebugContext(ctx, "Running scheduled task", "task_name", name)
	start := time.Now()

	err := s.tasks[name](ctx)
	duration := time.Since(start)
	if err != nil {
		metrics.ScheduledTaskRuns.WithLabelValues(name, "failure").Inc()
		s.logger.ErrorContext(ctx, "Scheduled task failed", "task_name", name, "duration", duration, "error", err)
		return err
	}

	metrics.ScheduledTaskRuns.WithLabelValues(name, "success").Inc()
	s.logger.InfoContext(ctx, "Finished scheduled task", "task_name", name, "duration", duration)
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to complete.
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
		s.logger.Info("Scheduler stopped gracefully")
	}
	s.running = false
	return err
}
