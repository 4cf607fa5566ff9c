package usecase

import (
	"context"
	"time"

	"disputedesk/internal/domain/entity"
)

// IdentityProvider is the hosted authentication service.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*entity.Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.Credentials, error)
	VerifyToken(ctx context.Context, idToken string) (string, error)
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	RevokeSession(ctx context.Context, uid string) error
}

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}
