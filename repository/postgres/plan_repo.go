package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/repository"
)

type planRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository returns a Postgres-backed PlanRepository. Snapshots are
// append-only rows: saving never updates, it inserts the next version.
func NewPlanRepository(pool *pgxpool.Pool) repository.PlanRepository {
	return &planRepository{pool: pool}
}

func (r *planRepository) LoadLatest(ctx context.Context, userID string) (*domain.Plan, error) {
	const query = `
	SELECT doc
	FROM plan_snapshots
	WHERE user_id = $1
	ORDER BY version_major DESC, version_minor DESC
	LIMIT 1
	`
	var doc []byte
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	var plan domain.Plan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt plan snapshot", err)
	}
	if err := plan.Reindex(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) SaveNewVersion(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if plan == nil {
		return nil, domain.ErrInvalidPayload
	}

	doc, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}

	const query = `
	INSERT INTO plan_snapshots (user_id, version_major, version_minor, doc)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`
	var rowID int64
	if err := r.pool.QueryRow(ctx, query,
		plan.UserID,
		plan.Version.Major,
		plan.Version.Minor,
		doc,
	).Scan(&rowID); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}

	return plan, nil
}
