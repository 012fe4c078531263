package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/repository"
)

// MutationFunc mutates the freshly loaded snapshot pair in place and reports
// which aggregates changed. All reads must come from this pair; there are no
// interleaved re-reads inside a transaction.
type MutationFunc func(plan *domain.Plan, schedule *domain.Schedule) (Outcome, error)

// PlanCache is the read cache refreshed whenever a plan snapshot is saved.
type PlanCache interface {
	Get(ctx context.Context, userID string) (*domain.Plan, error)
	Set(ctx context.Context, plan *domain.Plan) error
}

// SnapshotBuffer accepts snapshot saves that could not reach the primary
// store, to be flushed later.
type SnapshotBuffer interface {
	BufferPlan(ctx context.Context, plan *domain.Plan) error
	BufferSchedule(ctx context.Context, schedule *domain.Schedule) error
}

// Coordinator wraps every domain mutation in the load → apply → bump → save
// transaction. It owns nothing of the tree logic itself; correctness of the
// snapshot discipline lives here.
type Coordinator struct {
	plans     repository.PlanRepository
	schedules repository.ScheduleRepository
	users     repository.UserRepository
	cache     PlanCache
	buffer    SnapshotBuffer
	logger    *zap.Logger
	now       func() time.Time
}

func NewCoordinator(
	plans repository.PlanRepository,
	schedules repository.ScheduleRepository,
	users repository.UserRepository,
	cache PlanCache,
	buffer SnapshotBuffer,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		plans:     plans,
		schedules: schedules,
		users:     users,
		cache:     cache,
		buffer:    buffer,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the transaction clock. Tests use it; production wiring
// never calls it.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Now is the clock mutations derive deadlines and timestamps from.
func (c *Coordinator) Now() time.Time {
	return c.now()
}

// LoadPair fetches the latest Plan and Schedule for a user, seeding both on
// first use. A missing schedule for an existing plan is an integrity
// failure, not a seeding case.
func (c *Coordinator) LoadPair(ctx context.Context, userID string) (*domain.Plan, *domain.Schedule, error) {
	plan, err := c.plans.LoadLatest(ctx, userID)
	if errors.Is(err, domain.ErrPlanNotFound) {
		return c.seed(ctx, userID)
	}
	if err != nil {
		return nil, nil, err
	}

	schedule, err := c.schedules.LoadLatest(ctx, userID, plan.ID)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			return nil, nil, domain.Integrity("user %s has plan %s but no schedule", userID, plan.ID)
		}
		return nil, nil, err
	}
	return plan, schedule, nil
}

func (c *Coordinator) seed(ctx context.Context, userID string) (*domain.Plan, *domain.Schedule, error) {
	now := c.now()
	plan := domain.NewPlan(userID, now)
	schedule := domain.NewSchedule(userID, plan.ID, now)

	if _, err := c.plans.SaveNewVersion(ctx, plan); err != nil {
		return nil, nil, err
	}
	if _, err := c.schedules.SaveNewVersion(ctx, schedule); err != nil {
		return nil, nil, err
	}
	c.refreshCache(ctx, plan)
	c.logger.Info("seeded initial plan and schedule",
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID))
	return plan, schedule, nil
}

// InTx runs one mutation as a snapshot-isolated transaction: the function
// sees the pair loaded at the start, and only the aggregates it reports
// changed are bumped and saved.
func (c *Coordinator) InTx(ctx context.Context, userID string, fn MutationFunc) (*domain.Plan, *domain.Schedule, error) {
	plan, schedule, err := c.LoadPair(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := fn(plan, schedule)
	if err != nil {
		return nil, nil, err
	}

	now := c.now()
	switch outcome {
	case OutcomeNone:
	case OutcomeSchedule:
		schedule.Version.BumpMinor()
		schedule.Touch(now)
		if err := c.saveSchedule(ctx, schedule); err != nil {
			return nil, nil, err
		}
	case OutcomePlanAndSchedule:
		plan.Version.BumpMinor()
		plan.Touch(now)
		schedule.Version.BumpMinor()
		schedule.Touch(now)
		if err := c.savePlan(ctx, plan); err != nil {
			return nil, nil, err
		}
		if err := c.saveSchedule(ctx, schedule); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, domain.Integrity("mutation reported unsupported outcome %s", outcome)
	}

	return plan, schedule, nil
}

// UserTx runs an account-level mutation (the USER outcome): load, apply,
// upsert.
func (c *Coordinator) UserTx(ctx context.Context, userID string, fn func(*domain.User) error) (*domain.User, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = c.now()
	if err := c.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetLatestPlan serves the read path, preferring the cache.
func (c *Coordinator) GetLatestPlan(ctx context.Context, userID string) (*domain.Plan, error) {
	if c.cache != nil {
		if plan, err := c.cache.Get(ctx, userID); err == nil {
			return plan, nil
		}
	}
	plan, err := c.plans.LoadLatest(ctx, userID)
	if errors.Is(err, domain.ErrPlanNotFound) {
		plan, _, err = c.seed(ctx, userID)
		return plan, err
	}
	if err != nil {
		return nil, err
	}
	c.refreshCache(ctx, plan)
	return plan, nil
}

// GetLatestSchedule serves the schedule read path.
func (c *Coordinator) GetLatestSchedule(ctx context.Context, userID string) (*domain.Schedule, error) {
	_, schedule, err := c.LoadPair(ctx, userID)
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

func (c *Coordinator) savePlan(ctx context.Context, plan *domain.Plan) error {
	if _, err := c.plans.SaveNewVersion(ctx, plan); err != nil {
		if !c.bufferPlan(ctx, plan, err) {
			return err
		}
	}
	c.refreshCache(ctx, plan)
	return nil
}

func (c *Coordinator) saveSchedule(ctx context.Context, schedule *domain.Schedule) error {
	if _, err := c.schedules.SaveNewVersion(ctx, schedule); err != nil {
		if !c.bufferSchedule(ctx, schedule, err) {
			return err
		}
	}
	return nil
}

// bufferPlan falls back to the write-behind buffer when the store is
// unreachable. Version conflicts are never buffered: replaying one later
// would turn a detected race into a silent overwrite.
func (c *Coordinator) bufferPlan(ctx context.Context, plan *domain.Plan, cause error) bool {
	if c.buffer == nil || domain.IsDomainError(cause, domain.ErrCodeConflict) {
		return false
	}
	if err := c.buffer.BufferPlan(ctx, plan); err != nil {
		c.logger.Error("failed to buffer plan snapshot", zap.Error(err))
		return false
	}
	c.logger.Warn("plan snapshot buffered",
		zap.String("user_id", plan.UserID),
		zap.String("version", plan.Version.String()),
		zap.Error(cause))
	return true
}

func (c *Coordinator) bufferSchedule(ctx context.Context, schedule *domain.Schedule, cause error) bool {
	if c.buffer == nil || domain.IsDomainError(cause, domain.ErrCodeConflict) {
		return false
	}
	if err := c.buffer.BufferSchedule(ctx, schedule); err != nil {
		c.logger.Error("failed to buffer schedule snapshot", zap.Error(err))
		return false
	}
	c.logger.Warn("schedule snapshot buffered",
		zap.String("user_id", schedule.UserID),
		zap.String("version", schedule.Version.String()),
		zap.Error(cause))
	return true
}

func (c *Coordinator) refreshCache(ctx context.Context, plan *domain.Plan) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, plan); err != nil {
		c.logger.Warn("failed to refresh plan cache", zap.String("user_id", plan.UserID), zap.Error(err))
	}
}
