package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/internal/domain/service"
	"disputedesk/internal/infrastructure/ratelimit"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

const attachmentPrefix = "dispute_files"

type ChatUseCase struct {
	messages    repository.MessageRepository
	disputeRepo repository.DisputeRepository
	disputes    *DisputeUseCase
	files       service.FileUploadService
	rateLimiter RateLimiter
	clock       func() time.Time
}

func NewChatUseCase(
	messages repository.MessageRepository,
	disputeRepo repository.DisputeRepository,
	disputes *DisputeUseCase,
	files service.FileUploadService,
	rateLimiter RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		messages:    messages,
		disputeRepo: disputeRepo,
		disputes:    disputes,
		files:       files,
		rateLimiter: rateLimiter,
		clock:       time.Now,
	}
}

type SendMessageInput struct {
	Message     string              `json:"message" validate:"max=5000"`
	Attachments []entity.Attachment `json:"attachments" validate:"omitempty,max=10,dive"`
}

// normalized trims the text and drops attachments without a URL.
func (in SendMessageInput) normalized() SendMessageInput {
	out := SendMessageInput{Message: strings.TrimSpace(in.Message)}
	for _, a := range in.Attachments {
		if strings.TrimSpace(a.URL) != "" {
			out.Attachments = append(out.Attachments, a)
		}
	}
	return out
}

func (in SendMessageInput) empty() bool {
	return in.Message == "" && len(in.Attachments) == 0
}

type SendResult struct {
	Message *entity.Message `json:"message"`
	// LastMessageSynced is false when the message was stored but the
	// dispute's lastMessage fields could not be updated.
	LastMessageSynced bool `json:"last_message_synced"`
}

func (uc *ChatUseCase) FetchMessages(ctx context.Context, disputeID string) ([]*entity.Message, error) {
	return uc.messages.ListByDispute(ctx, disputeID)
}

func (uc *ChatUseCase) SubscribeMessages(ctx context.Context, disputeID string) *repository.Subscription[[]*entity.Message] {
	return uc.messages.Subscribe(ctx, disputeID)
}

func (uc *ChatUseCase) allow(uid, action string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if ok, wait := uc.rateLimiter.Allow(uid, action); !ok {
		return errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded, try again in %s", wait.Round(time.Second)))
	}
	return nil
}

// SendMessage stores a support reply. The message is the primary write; the
// dispute's lastMessage copy is best effort and never rolls the message back.
func (uc *ChatUseCase) SendMessage(ctx context.Context, sender *entity.SupportUser, disputeID string, input SendMessageInput) (*SendResult, error) {
	if sender == nil {
		return nil, errors.Unauthorized("Not signed in", nil)
	}

	input = input.normalized()
	if input.empty() {
		return nil, errors.EmptyMessage()
	}

	if err := uc.allow(sender.UID, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	senderName := sender.DisplayName
	if senderName == "" {
		senderName = sender.Email
	}

	message := &entity.Message{
		DisputeID:   disputeID,
		Message:     input.Message,
		SenderID:    sender.UID,
		SenderRole:  entity.SenderSupport,
		SenderName:  senderName,
		Attachments: input.Attachments,
	}
	if err := uc.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	result := &SendResult{Message: message, LastMessageSynced: true}
	if err := uc.disputeRepo.UpdateLastMessage(ctx, disputeID, message.Preview()); err != nil {
		logger.Warn("Message %s stored but lastMessage of dispute %s not updated: %v", message.ID, disputeID, err)
		result.LastMessageSynced = false
	}

	return result, nil
}

// UploadAttachment stores a file for a dispute chat and returns the
// attachment to put on the next message.
func (uc *ChatUseCase) UploadAttachment(ctx context.Context, uploader *entity.SupportUser, disputeID string, file io.Reader, size int64, name, contentType string) (*entity.Attachment, error) {
	if uploader == nil {
		return nil, errors.Unauthorized("Not signed in", nil)
	}
	if err := uc.allow(uploader.UID, ratelimit.ActionUploadAttachment); err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := AttachmentObjectName(disputeID, name, uc.clock())

	url, err := uc.files.UploadObject(ctx, file, size, contentType, objectName)
	if err != nil {
		logger.Error("Upload of %s for dispute %s failed: %v", objectName, disputeID, err)
		if errors.Is(err, errors.CodeUpload) {
			return nil, err
		}
		return nil, errors.UploadFailed(err)
	}

	displayName := strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if displayName == "" || displayName == "." || displayName == "/" {
		displayName = "file"
	}

	return &entity.Attachment{URL: url, Type: contentType, Name: displayName}, nil
}

// OpenDispute loads a dispute for the chat view. A New dispute moves to Open;
// if that update fails the dispute is still returned unchanged.
func (uc *ChatUseCase) OpenDispute(ctx context.Context, id string) (*entity.Dispute, error) {
	dispute, err := uc.disputes.GetDispute(ctx, id)
	if err != nil {
		return nil, err
	}

	if dispute.Status == entity.StatusNew {
		change, err := uc.disputes.UpdateStatus(ctx, id, string(entity.StatusOpen))
		if err != nil {
			logger.Warn("Failed to mark dispute %s as Open: %v", id, err)
			return dispute, nil
		}
		dispute.Apply(change)
	}

	return dispute, nil
}

// AttachmentObjectName builds dispute_files/{disputeID}/{unixMillis}-{rand}-{name}.
func AttachmentObjectName(disputeID, fileName string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s-%s",
		attachmentPrefix, disputeID, at.UnixMilli(), uuid.New().String()[:8], sanitizeFileName(fileName))
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		return "file"
	}
	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	return clean
}
