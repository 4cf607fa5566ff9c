package router

import (
	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/handler"
	"disputedesk/internal/adapter/api/middleware"
)

func SetupDisputeRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, supportMiddleware *middleware.SupportMiddleware) {
	disputeHandler := handler.GetDisputeHandler()
	chatHandler := handler.GetChatHandler()
	fileHandler := handler.GetFileHandler()

	disputes := e.Group("/v1/disputes")
	disputes.Use(authMiddleware.Authenticate, supportMiddleware.SupportOnly)

	disputes.GET("", disputeHandler.ListDisputes)
	disputes.GET("/statistics", disputeHandler.GetStatistics)
	disputes.GET("/:id", disputeHandler.GetDispute)
	disputes.PUT("/:id/status", disputeHandler.UpdateStatus)
	disputes.POST("/:id/open", disputeHandler.OpenDispute)

	disputes.GET("/:id/messages", chatHandler.GetMessages)
	disputes.POST("/:id/messages", chatHandler.SendMessage)
	disputes.POST("/:id/attachments", fileHandler.UploadAttachment)
}
