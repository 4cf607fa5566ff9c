package repository

import (
	"context"

	"disputedesk/internal/domain/entity"
)

type MessageRepository interface {
	ListByDispute(ctx context.Context, disputeID string) ([]*entity.Message, error)
	Subscribe(ctx context.Context, disputeID string) *Subscription[[]*entity.Message]
	// Create stores message under message.DisputeID and fills in the ID and
	// Timestamp assigned on write.
	Create(ctx context.Context, message *entity.Message) error
}
