package plan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/usecase"
)

// Result is the response of every tree mutation: the updated aggregates.
type Result struct {
	Plan     *domain.Plan     `json:"plan,omitempty"`
	Schedule *domain.Schedule `json:"schedule,omitempty"`
}

// UseCase exposes the goal-tree half of the operation surface. Every method
// is one coordinator transaction.
type UseCase struct {
	coord  *usecase.Coordinator
	logger *zap.Logger
}

func New(coord *usecase.Coordinator, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{coord: coord, logger: logger}
}

// CreateTaskRequest is the wire form of createTask. A nil done policy
// defaults to BOOLEAN.
type CreateTaskRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	GoalID      *int64                `json:"goal_id,omitempty"`
	Priority    domain.TaskPriority   `json:"priority,omitempty"`
	Urgency     domain.TaskUrgency    `json:"urgency,omitempty"`
	Deadline    *time.Time            `json:"deadline,omitempty"`
	Repeat      *domain.RepeatPeriod  `json:"repeat,omitempty"`
	Reminder    domain.ReminderPolicy `json:"reminder,omitempty"`
	DonePolicy  *domain.DonePolicyBox `json:"done_policy,omitempty"`
}

func (uc *UseCase) GetLatestPlan(ctx context.Context, userID string) (*domain.Plan, error) {
	return uc.coord.GetLatestPlan(ctx, userID)
}

func (uc *UseCase) UpdatePlan(ctx context.Context, userID string, req domain.PlanUpdate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		return p.Update(req)
	})
}

func (uc *UseCase) CreateGoal(ctx context.Context, userID string, req domain.GoalCreate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.CreateGoal(req, uc.coord.Now())
		return err
	})
}

func (uc *UseCase) MoveGoal(ctx context.Context, userID string, req domain.MoveRequest) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.MoveGoal(req, uc.coord.Now())
		return err
	})
}

func (uc *UseCase) UpdateGoal(ctx context.Context, userID string, req domain.GoalUpdate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.UpdateGoal(req, uc.coord.Now())
		return err
	})
}

func (uc *UseCase) MarkGoalAsDone(ctx context.Context, userID string, goalID int64) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.MarkGoalDone(goalID)
		return err
	})
}

func (uc *UseCase) ArchiveGoal(ctx context.Context, userID string, goalID int64) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.ArchiveGoal(goalID)
		return err
	})
}

// CreateMetric creates the metric and its paired collected-metric history in
// the same transaction.
func (uc *UseCase) CreateMetric(ctx context.Context, userID string, req domain.MetricCreate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		m, err := p.CreateMetric(req, uc.coord.Now())
		if err != nil {
			return err
		}
		s.EnsureCollectedMetric(m)
		return nil
	})
}

func (uc *UseCase) MoveMetric(ctx context.Context, userID string, req domain.LeafMove) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.MoveMetric(req)
		return err
	})
}

func (uc *UseCase) UpdateMetric(ctx context.Context, userID string, req domain.MetricUpdate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.UpdateMetric(req)
		return err
	})
}

func (uc *UseCase) ArchiveMetric(ctx context.Context, userID string, metricID int64) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.ArchiveMetric(metricID)
		return err
	})
}

// CreateTask creates the task and its paired scheduled task, seeded with one
// fresh occurrence dated to the creation day.
func (uc *UseCase) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		now := uc.coord.Now()
		create := domain.TaskCreate{
			Title:       req.Title,
			Description: req.Description,
			GoalID:      req.GoalID,
			Priority:    req.Priority,
			Urgency:     req.Urgency,
			Deadline:    req.Deadline,
			Repeat:      req.Repeat,
			Reminder:    req.Reminder,
		}
		if req.DonePolicy != nil {
			create.DonePolicy = req.DonePolicy.Policy
		}
		t, err := p.CreateTask(create, now)
		if err != nil {
			return err
		}
		_, err = s.EnsureScheduledTask(t, domain.DayOf(now))
		return err
	})
}

func (uc *UseCase) MoveTask(ctx context.Context, userID string, req domain.LeafMove) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.MoveTask(req)
		return err
	})
}

func (uc *UseCase) UpdateTask(ctx context.Context, userID string, req domain.TaskUpdate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.UpdateTask(req)
		return err
	})
}

func (uc *UseCase) ArchiveTask(ctx context.Context, userID string, taskID int64) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.ArchiveTask(taskID)
		return err
	})
}

func (uc *UseCase) CreateSubTask(ctx context.Context, userID string, req domain.SubTaskCreate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.CreateSubTask(req, uc.coord.Now())
		return err
	})
}

func (uc *UseCase) MoveSubTask(ctx context.Context, userID string, req domain.MoveRequest) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.MoveSubTask(req)
		return err
	})
}

func (uc *UseCase) UpdateSubTask(ctx context.Context, userID string, req domain.SubTaskUpdate) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.UpdateSubTask(req)
		return err
	})
}

func (uc *UseCase) ArchiveSubTask(ctx context.Context, userID string, subTaskID int64) (*Result, error) {
	return uc.planTx(ctx, userID, func(p *domain.Plan, _ *domain.Schedule) error {
		_, err := p.ArchiveSubTask(subTaskID)
		return err
	})
}

func (uc *UseCase) planTx(ctx context.Context, userID string, fn func(*domain.Plan, *domain.Schedule) error) (*Result, error) {
	p, s, err := uc.coord.InTx(ctx, userID, func(pl *domain.Plan, sch *domain.Schedule) (usecase.Outcome, error) {
		if err := fn(pl, sch); err != nil {
			return usecase.OutcomeNone, err
		}
		return usecase.OutcomePlanAndSchedule, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Plan: p, Schedule: s}, nil
}
