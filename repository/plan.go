package repository

import (
	"context"

	"github.com/planwise/backend/domain"
)

// PlanRepository is the narrow snapshot contract for the Plan aggregate.
// LoadLatest selects the snapshot with the greatest (major, minor) version;
// SaveNewVersion always inserts a new row and returns the saved snapshot.
type PlanRepository interface {
	LoadLatest(ctx context.Context, userID string) (*domain.Plan, error)
	SaveNewVersion(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
}
