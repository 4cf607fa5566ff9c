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
	"disputedesk/pkg/logger"
)

type firestoreDisputeRepository struct {
	client *firestore.Client
}

func NewFirestoreDisputeRepository(client *firestore.Client) repository.DisputeRepository {
	return &firestoreDisputeRepository{
		client: client,
	}
}

func decodeDisputes(docs []*firestore.DocumentSnapshot) []*entity.Dispute {
	disputes := make([]*entity.Dispute, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		disputes = append(disputes, disputeFromDocument(doc.Ref.ID, doc.Data()))
	}
	sortDisputes(disputes)
	return disputes
}

// Subscribe listens to the whole collection without an OrderBy so that
// disputes lacking createdAt are still delivered; ordering happens after
// normalization.
func (r *firestoreDisputeRepository) Subscribe(ctx context.Context) *repository.Subscription[[]*entity.Dispute] {
	q := r.client.Collection(disputesCollection).Query
	return repository.Subscribe(ctx, snapshotPump(q, "disputes", decodeDisputes))
}

// List filters after normalization, so legacy spellings such as "in_progress"
// match their canonical status.
func (r *firestoreDisputeRepository) List(ctx context.Context, statuses ...entity.DisputeStatus) ([]*entity.Dispute, error) {
	docs, err := r.client.Collection(disputesCollection).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing disputes: %v", err)
		return nil, errors.Network("list disputes", err)
	}

	disputes := decodeDisputes(docs)
	if len(statuses) == 0 {
		return disputes, nil
	}

	wanted := make(map[entity.DisputeStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	filtered := disputes[:0]
	for _, d := range disputes {
		if wanted[d.Status] {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (r *firestoreDisputeRepository) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	doc, err := r.client.Collection(disputesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Dispute", err)
		}
		return nil, errors.Network("get dispute", err)
	}
	return disputeFromDocument(doc.Ref.ID, doc.Data()), nil
}

// UpdateStatus writes status and updatedAt, plus resolvedAt when moving into
// Resolved. resolvedAt is never removed.
func (r *firestoreDisputeRepository) UpdateStatus(ctx context.Context, id string, newStatus entity.DisputeStatus, at time.Time) (*entity.StatusChange, error) {
	updates := []firestore.Update{
		{Path: "status", Value: string(newStatus)},
		{Path: "updatedAt", Value: at},
	}
	change := &entity.StatusChange{
		DisputeID: id,
		Status:    newStatus,
		UpdatedAt: at,
	}
	if newStatus == entity.StatusResolved {
		updates = append(updates, firestore.Update{Path: "resolvedAt", Value: at})
		resolvedAt := at
		change.ResolvedAt = &resolvedAt
	}

	_, err := r.client.Collection(disputesCollection).Doc(id).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Dispute", err)
		}
		logger.Error("Firestore error while updating status of dispute %s: %v", id, err)
		return nil, errors.Network("update dispute status", err)
	}

	return change, nil
}

func (r *firestoreDisputeRepository) UpdateLastMessage(ctx context.Context, id, preview string) error {
	_, err := r.client.Collection(disputesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: preview},
		{Path: "lastMessageTimestamp", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Dispute", err)
		}
		return errors.Network("update last message", err)
	}
	return nil
}
