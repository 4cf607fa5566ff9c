package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/errors"
)

type firestoreSupportUserRepository struct {
	client *firestore.Client
}

func NewFirestoreSupportUserRepository(client *firestore.Client) repository.SupportUserRepository {
	return &firestoreSupportUserRepository{
		client: client,
	}
}

func (r *firestoreSupportUserRepository) Create(ctx context.Context, user *entity.SupportUser) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Role == "" {
		user.Role = entity.RoleSupport
	}

	_, err := r.client.Collection(supportUsersCollection).Doc(user.UID).Set(ctx, user)
	if err != nil {
		return errors.Network("create support user", err)
	}
	return nil
}

func (r *firestoreSupportUserRepository) GetByID(ctx context.Context, uid string) (*entity.SupportUser, error) {
	if uid == "" || uid == setupMarkerDoc {
		return nil, errors.NotFound("Support user", nil)
	}

	doc, err := r.client.Collection(supportUsersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Support user", err)
		}
		return nil, errors.Network("get support user", err)
	}

	var user entity.SupportUser
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse support user data", err)
	}
	user.UID = doc.Ref.ID
	return &user, nil
}

func (r *firestoreSupportUserRepository) IsInitialized(ctx context.Context) (bool, error) {
	_, err := r.client.Collection(supportUsersCollection).Doc(setupMarkerDoc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, errors.Network("check setup marker", err)
	}
	return true, nil
}

func (r *firestoreSupportUserRepository) MarkInitialized(ctx context.Context) error {
	_, err := r.client.Collection(supportUsersCollection).Doc(setupMarkerDoc).Set(ctx, map[string]interface{}{
		"initialized": true,
		"createdAt":   firestore.ServerTimestamp,
	})
	if err != nil {
		return errors.Network("mark setup complete", err)
	}
	return nil
}
