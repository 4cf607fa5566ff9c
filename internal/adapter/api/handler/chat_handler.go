package handler

import (
	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/middleware"
	"disputedesk/internal/domain/entity"
	"disputedesk/internal/usecase"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/response"
)

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{
		chat: chat,
	}
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	messages, err := h.chat.FetchMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	if messages == nil {
		messages = []*entity.Message{}
	}
	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req usecase.SendMessageInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.chat.SendMessage(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, result)
}
