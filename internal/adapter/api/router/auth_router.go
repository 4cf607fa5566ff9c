package router

import (
	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/handler"
	"disputedesk/internal/adapter/api/middleware"
	"disputedesk/internal/infrastructure/ratelimit"
	"disputedesk/internal/usecase"
)

func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, supportMiddleware *middleware.SupportMiddleware, limiter usecase.RateLimiter) {
	authHandler := handler.GetAuthHandler()

	// Public routes
	e.GET("/v1/auth/setup", authHandler.SetupStatus)
	e.POST("/v1/auth/login", authHandler.Login, middleware.RateLimit(limiter, ratelimit.ActionLogin))
	e.POST("/v1/auth/refresh", authHandler.Refresh)

	// Anonymous during first-run setup, support agents afterwards
	e.POST("/v1/auth/register", authHandler.Register, authMiddleware.OptionalAuth, supportMiddleware.LoadSupportUser)

	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate, supportMiddleware.SupportOnly)

	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
}
