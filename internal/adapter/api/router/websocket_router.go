package router

import (
	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/handler"
)

func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// Authenticated inside the handler from the token query parameter
	e.GET("/ws", wsHandler.HandleWebSocket)
}
