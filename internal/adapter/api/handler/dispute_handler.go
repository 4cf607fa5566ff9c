package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"disputedesk/internal/domain/entity"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/response"
	"disputedesk/pkg/utils"
)

type DisputeHandler struct {
	disputes DisputeService
	chat     ChatService
}

func NewDisputeHandler(disputes DisputeService, chat ChatService) *DisputeHandler {
	return &DisputeHandler{
		disputes: disputes,
		chat:     chat,
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type openDisputeResponse struct {
	Dispute  *entity.Dispute   `json:"dispute"`
	Messages []*entity.Message `json:"messages"`
}

// parseStatusFilter accepts ?status=Open&status=New or ?status=Open,New.
func parseStatusFilter(values []string) ([]entity.DisputeStatus, error) {
	var statuses []entity.DisputeStatus
	for _, v := range values {
		for _, raw := range strings.Split(v, ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			s, ok := entity.ParseDisputeStatus(raw)
			if !ok {
				return nil, errors.BadRequest(fmt.Sprintf("Unknown status filter %q", raw), nil)
			}
			statuses = append(statuses, s)
		}
	}
	return statuses, nil
}

func (h *DisputeHandler) ListDisputes(c echo.Context) error {
	statuses, err := parseStatusFilter(c.QueryParams()["status"])
	if err != nil {
		return response.Error(c, err)
	}

	disputes, err := h.disputes.ListDisputes(c.Request().Context(), statuses...)
	if err != nil {
		return response.Error(c, err)
	}

	p := utils.GetPaginationParams(c)
	return response.Paginated(c, utils.Page(disputes, p), int64(len(disputes)), p.Page, p.PageSize)
}

func (h *DisputeHandler) GetStatistics(c echo.Context) error {
	fresh, _ := strconv.ParseBool(c.QueryParam("fresh"))
	stats, err := h.disputes.GetStatistics(c.Request().Context(), fresh)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}

func (h *DisputeHandler) GetDispute(c echo.Context) error {
	dispute, err := h.disputes.GetDispute(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, dispute)
}

func (h *DisputeHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	change, err := h.disputes.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, change)
}

// OpenDispute is what the dashboard calls when an agent opens a chat: it
// applies the implicit New -> Open transition and returns the history.
func (h *DisputeHandler) OpenDispute(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	dispute, err := h.chat.OpenDispute(ctx, id)
	if err != nil {
		return response.Error(c, err)
	}
	messages, err := h.chat.FetchMessages(ctx, id)
	if err != nil {
		return response.Error(c, err)
	}
	if messages == nil {
		messages = []*entity.Message{}
	}
	return response.Success(c, openDisputeResponse{Dispute: dispute, Messages: messages})
}
