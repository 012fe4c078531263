package schedule

import (
	"context"

	"go.uber.org/zap"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/usecase"
)

// Result is the response of every schedule mutation.
type Result struct {
	Schedule *domain.Schedule `json:"schedule"`
}

// UseCase exposes the schedule half of the operation surface: metric samples
// and task-occurrence completion. Every method is one coordinator
// transaction that changes the Schedule aggregate only.
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

// IncrementMetricRequest bumps a counter metric. A nil step defaults to 1;
// an explicit non-positive step is rejected.
type IncrementMetricRequest struct {
	MetricID int64  `json:"metric_id"`
	Step     *int64 `json:"step,omitempty"`
}

// RecordForMetricRequest appends a gauge sample.
type RecordForMetricRequest struct {
	MetricID int64   `json:"metric_id"`
	Value    float64 `json:"value"`
}

// IncrementCounterTaskRequest advances a COUNTER task's current occurrence.
type IncrementCounterTaskRequest struct {
	TaskID int64  `json:"task_id"`
	Step   *int64 `json:"step,omitempty"`
}

// SetGaugeTaskRequest sets a GAUGE task's current occurrence value.
type SetGaugeTaskRequest struct {
	TaskID int64   `json:"task_id"`
	Value  float64 `json:"value"`
}

func (uc *UseCase) GetLatestSchedule(ctx context.Context, userID string) (*domain.Schedule, error) {
	return uc.coord.GetLatestSchedule(ctx, userID)
}

func (uc *UseCase) IncrementMetric(ctx context.Context, userID string, req IncrementMetricRequest) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.IncrementMetric(p, req.MetricID, stepOrDefault(req.Step), uc.coord.Now())
		return err
	})
}

func (uc *UseCase) RecordForMetric(ctx context.Context, userID string, req RecordForMetricRequest) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.RecordForMetric(p, req.MetricID, req.Value, uc.coord.Now())
		return err
	})
}

func (uc *UseCase) MarkTaskAsDone(ctx context.Context, userID string, taskID int64) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.MarkTaskDone(p, taskID)
		return err
	})
}

func (uc *UseCase) MarkSubTaskAsDone(ctx context.Context, userID string, subTaskID int64) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.MarkSubTaskDone(p, subTaskID)
		return err
	})
}

func (uc *UseCase) IncrementCounterTask(ctx context.Context, userID string, req IncrementCounterTaskRequest) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.IncrementCounterTask(p, req.TaskID, stepOrDefault(req.Step))
		return err
	})
}

func (uc *UseCase) SetGaugeTask(ctx context.Context, userID string, req SetGaugeTaskRequest) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.SetGaugeTask(p, req.TaskID, req.Value)
		return err
	})
}

func (uc *UseCase) UpdateScheduledTaskEntry(ctx context.Context, userID string, req domain.EntryUpdate) (*Result, error) {
	return uc.scheduleTx(ctx, userID, func(p *domain.Plan, s *domain.Schedule) error {
		_, err := s.UpdateEntry(p, req)
		return err
	})
}

func (uc *UseCase) scheduleTx(ctx context.Context, userID string, fn func(*domain.Plan, *domain.Schedule) error) (*Result, error) {
	_, s, err := uc.coord.InTx(ctx, userID, func(pl *domain.Plan, sch *domain.Schedule) (usecase.Outcome, error) {
		if err := fn(pl, sch); err != nil {
			return usecase.OutcomeNone, err
		}
		return usecase.OutcomeSchedule, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Schedule: s}, nil
}

func stepOrDefault(step *int64) int64 {
	if step == nil {
		return 1
	}
	return *step
}
