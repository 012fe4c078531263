package account

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/usecase"
)

// UseCase covers account-level edits (the USER outcome): vacations.
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

type CreateVacationRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ArchiveVacationRequest struct {
	ID int64 `json:"id"`
}

func (uc *UseCase) CreateVacation(ctx context.Context, userID string, req CreateVacationRequest) (*domain.User, error) {
	return uc.coord.UserTx(ctx, userID, func(u *domain.User) error {
		_, err := u.AddVacation(req.Start, req.End)
		return err
	})
}

func (uc *UseCase) ArchiveVacation(ctx context.Context, userID string, req ArchiveVacationRequest) (*domain.User, error) {
	return uc.coord.UserTx(ctx, userID, func(u *domain.User) error {
		_, err := u.ArchiveVacation(req.ID)
		return err
	})
}
