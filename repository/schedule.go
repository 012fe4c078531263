package repository

import (
	"context"

	"github.com/planwise/backend/domain"
)

// ScheduleRepository is the snapshot contract for the Schedule aggregate,
// keyed by both owner and plan.
type ScheduleRepository interface {
	LoadLatest(ctx context.Context, userID, planID string) (*domain.Schedule, error)
	SaveNewVersion(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error)
}
