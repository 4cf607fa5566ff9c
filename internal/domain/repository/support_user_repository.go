package repository

import (
	"context"

	"disputedesk/internal/domain/entity"
)

type SupportUserRepository interface {
	Create(ctx context.Context, user *entity.SupportUser) error
	GetByID(ctx context.Context, uid string) (*entity.SupportUser, error)
	// IsInitialized reports whether the first support account has ever been
	// registered.
	IsInitialized(ctx context.Context) (bool, error)
	MarkInitialized(ctx context.Context) error
}
