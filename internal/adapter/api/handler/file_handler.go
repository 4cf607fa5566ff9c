package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/middleware"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
	"disputedesk/pkg/response"
)

type FileHandler struct {
	chat        ChatService
	maxFileSize int64
}

func NewFileHandler(chat ChatService, maxFileSize int64) *FileHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	return &FileHandler{
		chat:        chat,
		maxFileSize: maxFileSize,
	}
}

// UploadAttachment takes a multipart "file" field and stores it under the
// dispute. The returned attachment goes on the next message.
func (h *FileHandler) UploadAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		logger.Debug("Error getting file from form: %v", err)
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}
	if file.Size > h.maxFileSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File exceeds the %d MB limit", h.maxFileSize/(1024*1024)), nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer src.Close()

	attachment, err := h.chat.UploadAttachment(
		c.Request().Context(),
		middleware.CurrentUser(c),
		c.Param("id"),
		src,
		file.Size,
		file.Filename,
		file.Header.Get("Content-Type"),
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, attachment)
}
