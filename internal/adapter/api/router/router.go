package router

import (
	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/handler"
	"disputedesk/internal/adapter/api/middleware"
	"disputedesk/internal/usecase"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	supportMiddleware *middleware.SupportMiddleware,
	limiter usecase.RateLimiter,
	wsHandler *handler.WebSocketHandler,
) {
	SetupAuthRouter(e, authMiddleware, supportMiddleware, limiter)
	SetupDisputeRouter(e, authMiddleware, supportMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
