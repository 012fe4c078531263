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

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository returns a Postgres-backed ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) repository.ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

func (r *scheduleRepository) LoadLatest(ctx context.Context, userID, planID string) (*domain.Schedule, error) {
	const query = `
	SELECT doc
	FROM schedule_snapshots
	WHERE user_id = $1 AND plan_id = $2
	ORDER BY version_major DESC, version_minor DESC
	LIMIT 1
	`
	var doc []byte
	if err := r.pool.QueryRow(ctx, query, userID, planID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, err
	}

	var schedule domain.Schedule
	if err := json.Unmarshal(doc, &schedule); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt schedule snapshot", err)
	}
	if err := schedule.Reindex(); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) SaveNewVersion(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error) {
	if schedule == nil {
		return nil, domain.ErrInvalidPayload
	}

	doc, err := json.Marshal(schedule)
	if err != nil {
		return nil, err
	}

	const query = `
	INSERT INTO schedule_snapshots (user_id, plan_id, version_major, version_minor, doc)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`
	var rowID int64
	if err := r.pool.QueryRow(ctx, query,
		schedule.UserID,
		schedule.PlanID,
		schedule.Version.Major,
		schedule.Version.Minor,
		doc,
	).Scan(&rowID); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}

	return schedule, nil
}
