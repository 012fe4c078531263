package ops

import (
	"context"
	"encoding/json"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/usecase"
	"github.com/planwise/backend/usecase/account"
	"github.com/planwise/backend/usecase/plan"
	"github.com/planwise/backend/usecase/schedule"
)

// idRequest is the shared payload of archive and mark-done operations.
type idRequest struct {
	ID int64 `json:"id"`
}

// Register builds the full operation table. Every operation is per-user and
// therefore requires authentication; the auth flag lives here so the
// transport layer can stay a dumb dispatcher.
func Register(
	d *usecase.Dispatcher,
	planUC *plan.UseCase,
	scheduleUC *schedule.UseCase,
	accountUC *account.UseCase,
) {
	// Plan reads and tree mutations.
	d.Register("getLatestPlan", true, func(ctx context.Context, userID string, _ json.RawMessage) (interface{}, error) {
		return planUC.GetLatestPlan(ctx, userID)
	})
	d.Register("updatePlan", true, decode(func(ctx context.Context, userID string, req domain.PlanUpdate) (interface{}, error) {
		return planUC.UpdatePlan(ctx, userID, req)
	}))
	d.Register("createGoal", true, decode(func(ctx context.Context, userID string, req domain.GoalCreate) (interface{}, error) {
		return planUC.CreateGoal(ctx, userID, req)
	}))
	d.Register("moveGoal", true, decode(func(ctx context.Context, userID string, req domain.MoveRequest) (interface{}, error) {
		return planUC.MoveGoal(ctx, userID, req)
	}))
	d.Register("updateGoal", true, decode(func(ctx context.Context, userID string, req domain.GoalUpdate) (interface{}, error) {
		return planUC.UpdateGoal(ctx, userID, req)
	}))
	d.Register("markGoalAsDone", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return planUC.MarkGoalAsDone(ctx, userID, req.ID)
	}))
	d.Register("archiveGoal", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return planUC.ArchiveGoal(ctx, userID, req.ID)
	}))

	d.Register("createMetric", true, decode(func(ctx context.Context, userID string, req domain.MetricCreate) (interface{}, error) {
		return planUC.CreateMetric(ctx, userID, req)
	}))
	d.Register("moveMetric", true, decode(func(ctx context.Context, userID string, req domain.LeafMove) (interface{}, error) {
		return planUC.MoveMetric(ctx, userID, req)
	}))
	d.Register("updateMetric", true, decode(func(ctx context.Context, userID string, req domain.MetricUpdate) (interface{}, error) {
		return planUC.UpdateMetric(ctx, userID, req)
	}))
	d.Register("archiveMetric", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return planUC.ArchiveMetric(ctx, userID, req.ID)
	}))

	d.Register("createTask", true, decode(func(ctx context.Context, userID string, req plan.CreateTaskRequest) (interface{}, error) {
		return planUC.CreateTask(ctx, userID, req)
	}))
	d.Register("moveTask", true, decode(func(ctx context.Context, userID string, req domain.LeafMove) (interface{}, error) {
		return planUC.MoveTask(ctx, userID, req)
	}))
	d.Register("updateTask", true, decode(func(ctx context.Context, userID string, req domain.TaskUpdate) (interface{}, error) {
		return planUC.UpdateTask(ctx, userID, req)
	}))
	d.Register("archiveTask", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return planUC.ArchiveTask(ctx, userID, req.ID)
	}))

	d.Register("createSubTask", true, decode(func(ctx context.Context, userID string, req domain.SubTaskCreate) (interface{}, error) {
		return planUC.CreateSubTask(ctx, userID, req)
	}))
	d.Register("moveSubTask", true, decode(func(ctx context.Context, userID string, req domain.MoveRequest) (interface{}, error) {
		return planUC.MoveSubTask(ctx, userID, req)
	}))
	d.Register("updateSubTask", true, decode(func(ctx context.Context, userID string, req domain.SubTaskUpdate) (interface{}, error) {
		return planUC.UpdateSubTask(ctx, userID, req)
	}))
	d.Register("archiveSubTask", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return planUC.ArchiveSubTask(ctx, userID, req.ID)
	}))

	// Schedule reads and occurrence mutations.
	d.Register("getLatestSchedule", true, func(ctx context.Context, userID string, _ json.RawMessage) (interface{}, error) {
		return scheduleUC.GetLatestSchedule(ctx, userID)
	})
	d.Register("incrementMetric", true, decode(func(ctx context.Context, userID string, req schedule.IncrementMetricRequest) (interface{}, error) {
		return scheduleUC.IncrementMetric(ctx, userID, req)
	}))
	d.Register("recordForMetric", true, decode(func(ctx context.Context, userID string, req schedule.RecordForMetricRequest) (interface{}, error) {
		return scheduleUC.RecordForMetric(ctx, userID, req)
	}))
	d.Register("markTaskAsDone", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return scheduleUC.MarkTaskAsDone(ctx, userID, req.ID)
	}))
	d.Register("markSubTaskAsDone", true, decode(func(ctx context.Context, userID string, req idRequest) (interface{}, error) {
		return scheduleUC.MarkSubTaskAsDone(ctx, userID, req.ID)
	}))
	d.Register("incrementCounterTask", true, decode(func(ctx context.Context, userID string, req schedule.IncrementCounterTaskRequest) (interface{}, error) {
		return scheduleUC.IncrementCounterTask(ctx, userID, req)
	}))
	d.Register("setGaugeTask", true, decode(func(ctx context.Context, userID string, req schedule.SetGaugeTaskRequest) (interface{}, error) {
		return scheduleUC.SetGaugeTask(ctx, userID, req)
	}))
	d.Register("updateScheduledTaskEntry", true, decode(func(ctx context.Context, userID string, req domain.EntryUpdate) (interface{}, error) {
		return scheduleUC.UpdateScheduledTaskEntry(ctx, userID, req)
	}))

	// Account-level edits.
	d.Register("createVacation", true, decode(func(ctx context.Context, userID string, req account.CreateVacationRequest) (interface{}, error) {
		return accountUC.CreateVacation(ctx, userID, req)
	}))
	d.Register("archiveVacation", true, decode(func(ctx context.Context, userID string, req account.ArchiveVacationRequest) (interface{}, error) {
		return accountUC.ArchiveVacation(ctx, userID, req)
	}))
}

// decode adapts a typed handler to the raw dispatcher signature. An empty
// payload decodes the zero request so id-less operations stay callable.
func decode[T any](fn func(ctx context.Context, userID string, req T) (interface{}, error)) usecase.OperationHandler {
	return func(ctx context.Context, userID string, payload json.RawMessage) (interface{}, error) {
		var req T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, domain.Invalid("malformed request payload: %v", err)
			}
		}
		return fn(ctx, userID, req)
	}
}
