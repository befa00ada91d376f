package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/infrastructure/telemetry"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries a raw-body HMAC as an alternative to the body field
const SignatureHeader = "X-Signature"

// WebhookAuthenticator verifies raw inbound webhook bodies
type WebhookAuthenticator interface {
	Verify(body []byte, headerSignature string) (*integrationapp.WebhookEvent, error)
}

// StockWebhookProcessor applies verified webhook events
type StockWebhookProcessor interface {
	HandleStockWebhook(ctx context.Context, event integrationapp.WebhookEvent) (*integrationapp.WebhookResult, error)
}

// WebhookHandler serves the public store webhook endpoint
type WebhookHandler struct {
	BaseHandler
	verifier  WebhookAuthenticator
	processor StockWebhookProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(verifier WebhookAuthenticator, processor StockWebhookProcessor) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor}
}

// StockSync godoc
// @Summary      Receive a store stock change
// @Description  Signed notification sent by a store plugin when stock or purchase price changes.
// @Description  Business failures are answered with 200 and success=false.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Signature header string false "hex HMAC-SHA256 of the raw body"
// @Success      200 {object} integrationapp.WebhookResult
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhook/stock-sync [post]
func (h *WebhookHandler) StockSync(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ErrorWithCode(c, dto.ErrCodePayloadTooLarge, "Webhook body is too large")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	event, err := h.verifier.Verify(body, c.GetHeader(SignatureHeader))
	if err != nil {
		logger.L(ctx).Warn("Webhook rejected",
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err),
		)
		h.HandleError(c, err)
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "stock_sync.webhook", telemetry.AttrEvent.String(event.Event))
	result, err := h.processor.HandleStockWebhook(ctx, *event)
	telemetry.EndSpan(span, err)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
