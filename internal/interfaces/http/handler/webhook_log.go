package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// MaxStatsWindow bounds the stats window query parameter
const MaxStatsWindow = 90 * 24 * time.Hour

// WebhookLogReader reads the webhook audit trail of a store
type WebhookLogReader interface {
	List(ctx context.Context, companyID, storeID uuid.UUID, req integrationapp.ListWebhookLogsRequest) ([]integrationapp.WebhookLogResponse, int64, error)
	Stats(ctx context.Context, companyID, storeID uuid.UUID, window time.Duration) (*integrationapp.WebhookStatsResponse, error)
}

// WebhookLogHandler exposes webhook logs and stats per store
type WebhookLogHandler struct {
	BaseHandler
	logs WebhookLogReader
}

// NewWebhookLogHandler creates a new WebhookLogHandler
func NewWebhookLogHandler(logs WebhookLogReader) *WebhookLogHandler {
	return &WebhookLogHandler{logs: logs}
}

// List godoc
// @Summary      List webhook logs of a store
// @Tags         webhook-logs
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Param        direction query string false "inbound or outbound"
// @Param        status query string false "pending, success or failed"
// @Param        event_type query string false "Event type"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]integrationapp.WebhookLogResponse,meta=dto.Meta}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id}/webhook-logs [get]
func (h *WebhookLogHandler) List(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req integrationapp.ListWebhookLogsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	logs, total, err := h.logs.List(c.Request.Context(), companyID, storeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := shared.NormalizePage(req.Page, req.PageSize)
	h.SuccessWithMeta(c, logs, total, page, pageSize)
}

// Stats godoc
// @Summary      Webhook activity of a store
// @Description  Counts by status and direction over a trailing window, 24h by default.
// @Tags         webhook-logs
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Param        window query string false "Go duration such as 1h or 168h"
// @Success      200 {object} dto.Response{data=integrationapp.WebhookStatsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id}/webhook-stats [get]
func (h *WebhookLogHandler) Stats(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 || d > MaxStatsWindow {
			h.BadRequest(c, "window must be a positive duration of at most 2160h")
			return
		}
		window = d
	}

	stats, err := h.logs.Stats(c.Request.Context(), companyID, storeID, window)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
