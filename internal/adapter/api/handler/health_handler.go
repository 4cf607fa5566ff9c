package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type SetupChecker interface {
	SetupRequired(ctx context.Context) (bool, error)
}

type ConnectionCounter interface {
	ClientCount() int
}

type HealthHandler struct {
	checker     SetupChecker
	connections ConnectionCounter
}

func NewHealthHandler(checker SetupChecker, connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{
		checker:     checker,
		connections: connections,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	}
	if h.connections != nil {
		body["websocket_clients"] = h.connections.ClientCount()
	}
	return c.JSON(http.StatusOK, body)
}

// CheckDatastore reads the setup marker, which proves Firestore is reachable
// and tells operators whether first-run registration is still open.
func (h *HealthHandler) CheckDatastore(c echo.Context) error {
	required, err := h.checker.SetupRequired(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "Datastore unreachable",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "Datastore reachable",
		"setup_required": required,
	})
}
