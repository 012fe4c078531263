package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/repository"
	"github.com/planwise/backend/usecase"
)

// SchedulerConfig controls the occurrence-generation pass.
type SchedulerConfig struct {
	Interval time.Duration
}

// Scheduler periodically walks all active users and appends fresh occurrence
// entries for repeating tasks that are due. Each user is one snapshot
// transaction; a failure for one user never blocks the others.
type Scheduler struct {
	coord  *usecase.Coordinator
	users  repository.UserRepository
	logger *zap.Logger
	cron   *cron.Cron
	cfg    SchedulerConfig
}

func NewScheduler(
	coord *usecase.Coordinator,
	users repository.UserRepository,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		coord:  coord,
		users:  users,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := s.RunPass(ctx); err != nil {
			s.logger.Error("scheduler pass finished with errors", zap.Error(err))
		}
	})

	return s
}

// Start launches the cron scheduler.
func (s *Scheduler) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("occurrence scheduler started",
		zap.Duration("interval", s.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("occurrence scheduler stopped")
}

// RunPass generates occurrences for every active user. Per-user failures are
// collected and returned together; the pass itself always runs to completion.
func (s *Scheduler) RunPass(ctx context.Context) error {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	today := domain.DayOf(s.coord.Now())

	var result *multierror.Error
	for i := range users {
		user := users[i]
		added, err := s.runUser(ctx, &user, today)
		if err != nil {
			s.logger.Error("occurrence generation failed",
				zap.String("user_id", user.ID),
				zap.Error(err))
			result = multierror.Append(result, fmt.Errorf("user %s: %w", user.ID, err))
			continue
		}
		if added > 0 {
			s.logger.Info("occurrences generated",
				zap.String("user_id", user.ID),
				zap.Int("added", added))
		}
	}

	return result.ErrorOrNil()
}

func (s *Scheduler) runUser(ctx context.Context, user *domain.User, today domain.Day) (int, error) {
	var added int
	_, _, err := s.coord.InTx(ctx, user.ID, func(p *domain.Plan, sch *domain.Schedule) (usecase.Outcome, error) {
		n, err := domain.GenerateOccurrences(p, sch, user, today)
		if err != nil {
			return usecase.OutcomeNone, err
		}
		added = n
		if n == 0 {
			return usecase.OutcomeNone, nil
		}
		return usecase.OutcomeSchedule, nil
	})
	return added, err
}
