package repository

import (
	"context"
	"time"

	"disputedesk/internal/domain/entity"
)

type DisputeRepository interface {
	// Subscribe streams the full, ordered dispute list on every change.
	Subscribe(ctx context.Context) *Subscription[[]*entity.Dispute]
	// List reads the collection once. With statuses given, only disputes in
	// one of them are returned.
	List(ctx context.Context, statuses ...entity.DisputeStatus) ([]*entity.Dispute, error)
	GetByID(ctx context.Context, id string) (*entity.Dispute, error)
	UpdateStatus(ctx context.Context, id string, status entity.DisputeStatus, at time.Time) (*entity.StatusChange, error)
	UpdateLastMessage(ctx context.Context, id, preview string) error
}
