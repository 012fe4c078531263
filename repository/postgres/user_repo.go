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

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed UserRepository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
	SELECT id, email, display_name, status, id_serial, vacations, created_at, updated_at
	FROM users
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanUser(row)
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	vacations, err := json.Marshal(user.Vacations)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO users (id, email, display_name, status, id_serial, vacations)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE
	SET email = EXCLUDED.email,
		display_name = EXCLUDED.display_name,
		status = EXCLUDED.status,
		id_serial = EXCLUDED.id_serial,
		vacations = EXCLUDED.vacations,
		updated_at = NOW()
	RETURNING created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Status,
		user.IDSerial,
		vacations,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	const query = `
	SELECT id, email, display_name, status, id_serial, vacations, created_at, updated_at
	FROM users
	WHERE status = 'active'
	ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*domain.User, error) {
	var user domain.User
	var vacations []byte

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Status,
		&user.IDSerial,
		&vacations,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if len(vacations) > 0 {
		if err := json.Unmarshal(vacations, &user.Vacations); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt vacations payload", err)
		}
	}
	return &user, nil
}
