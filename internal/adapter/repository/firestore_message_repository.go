package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(disputeID string) *firestore.CollectionRef {
	return r.client.Collection(disputeChatsCollection).Doc(disputeID).Collection(messagesCollection)
}

func messageDecoder(disputeID string) func([]*firestore.DocumentSnapshot) []*entity.Message {
	return func(docs []*firestore.DocumentSnapshot) []*entity.Message {
		messages := make([]*entity.Message, 0, len(docs))
		for _, doc := range docs {
			if !doc.Exists() {
				continue
			}
			messages = append(messages, messageFromDocument(disputeID, doc.Ref.ID, doc.Data(), doc.ReadTime))
		}
		sortMessages(messages)
		return messages
	}
}

func (r *firestoreMessageRepository) ListByDispute(ctx context.Context, disputeID string) ([]*entity.Message, error) {
	docs, err := r.messages(disputeID).OrderBy("timestamp", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing messages for dispute %s: %v", disputeID, err)
		return nil, errors.Network("list messages", err)
	}
	return messageDecoder(disputeID)(docs), nil
}

func (r *firestoreMessageRepository) Subscribe(ctx context.Context, disputeID string) *repository.Subscription[[]*entity.Message] {
	q := r.messages(disputeID).OrderBy("timestamp", firestore.Asc)
	return repository.Subscribe(ctx, snapshotPump(q, "messages:"+disputeID, messageDecoder(disputeID)))
}

// Create stores the message with a server-assigned timestamp. The returned
// commit time is the value that timestamp resolves to.
func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	doc := map[string]interface{}{
		"message":    message.Message,
		"senderId":   message.SenderID,
		"senderRole": string(message.SenderRole),
		"disputeId":  message.DisputeID,
		"timestamp":  firestore.ServerTimestamp,
	}
	if message.SenderName != "" {
		doc["senderName"] = message.SenderName
	}
	if len(message.Attachments) > 0 {
		doc["attachments"] = attachmentsToDocument(message.Attachments)
	}

	ref, wr, err := r.messages(message.DisputeID).Add(ctx, doc)
	if err != nil {
		logger.Error("Firestore error while sending message to dispute %s: %v", message.DisputeID, err)
		return errors.Network("send message", err)
	}

	message.ID = ref.ID
	message.Timestamp = time.Now()
	if wr != nil && !wr.UpdateTime.IsZero() {
		message.Timestamp = wr.UpdateTime
	}
	return nil
}
