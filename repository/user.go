package repository

import (
	"context"

	"github.com/planwise/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// ListActive enumerates the users the background scheduler visits.
	ListActive(ctx context.Context) ([]domain.User, error)
}
