package handler

import (
	"context"
	"io"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/internal/usecase"
)

type SessionService interface {
	CurrentUser(ctx context.Context, idToken string) (*entity.SupportUser, error)
	Login(ctx context.Context, email, password string) (*entity.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.Session, error)
	Logout(ctx context.Context, uid string) error
	SetupRequired(ctx context.Context) (bool, error)
	Register(ctx context.Context, caller *entity.SupportUser, input usecase.RegisterInput) (*usecase.RegisterResult, error)
}

type DisputeService interface {
	ListDisputes(ctx context.Context, statuses ...entity.DisputeStatus) ([]*entity.Dispute, error)
	GetDispute(ctx context.Context, id string) (*entity.Dispute, error)
	UpdateStatus(ctx context.Context, id, raw string) (*entity.StatusChange, error)
	GetStatistics(ctx context.Context, fresh bool) (*entity.DisputeStatistics, error)
	WatchDashboard(ctx context.Context) *repository.Subscription[*entity.DashboardSnapshot]
}

type ChatService interface {
	OpenDispute(ctx context.Context, id string) (*entity.Dispute, error)
	FetchMessages(ctx context.Context, disputeID string) ([]*entity.Message, error)
	SendMessage(ctx context.Context, sender *entity.SupportUser, disputeID string, input usecase.SendMessageInput) (*usecase.SendResult, error)
	UploadAttachment(ctx context.Context, uploader *entity.SupportUser, disputeID string, file io.Reader, size int64, name, contentType string) (*entity.Attachment, error)
	NewSession(user *entity.SupportUser, disputeID string) *usecase.ChatSession
}

var (
	authHandler    *AuthHandler
	disputeHandler *DisputeHandler
	chatHandler    *ChatHandler
	fileHandler    *FileHandler
	healthHandler  *HealthHandler
)

func Setup(sessions SessionService, disputes DisputeService, chat ChatService, connections ConnectionCounter, maxUploadBytes int64) {
	authHandler = NewAuthHandler(sessions)
	disputeHandler = NewDisputeHandler(disputes, chat)
	chatHandler = NewChatHandler(chat)
	fileHandler = NewFileHandler(chat, maxUploadBytes)
	healthHandler = NewHealthHandler(sessions, connections)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetDisputeHandler() *DisputeHandler {
	return disputeHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
