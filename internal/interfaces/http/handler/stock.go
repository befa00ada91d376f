package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
)

// DashboardStockUpdater applies dashboard edits to local products and their store
type DashboardStockUpdater interface {
	UpdateStockFromDashboard(ctx context.Context, companyID uuid.UUID, req integrationapp.UpdateStockRequest) (*integrationapp.DashboardUpdateResult, error)
	UpdatePurchasePriceFromDashboard(ctx context.Context, companyID uuid.UUID, req integrationapp.UpdatePurchasePriceRequest) (*integrationapp.DashboardUpdateResult, error)
}

// StockHandler handles dashboard stock and purchase price edits
type StockHandler struct {
	BaseHandler
	updater DashboardStockUpdater
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(updater DashboardStockUpdater) *StockHandler {
	return &StockHandler{updater: updater}
}

// UpdateStockBody is the body of a stock edit. Quantity may be negative for backorders.
type UpdateStockBody struct {
	Quantity   *int `json:"quantity" binding:"required" example:"12"`
	SkipRemote bool `json:"skip_remote" example:"false"`
}

// UpdatePurchasePriceBody is the body of a purchase price edit
type UpdatePurchasePriceBody struct {
	PurchasePrice *decimal.Decimal `json:"purchase_price" binding:"required" example:"19.90"`
	SkipRemote    bool             `json:"skip_remote" example:"false"`
}

// UpdateStock godoc
// @Summary      Set product stock
// @Description  Updates the local quantity and pushes it to the owning store unless skip_remote is set.
// @Description  The change is not fanned out to mapped siblings.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variationId path string false "Variation ID" format(uuid)
// @Param        request body UpdateStockBody true "New quantity"
// @Success      200 {object} dto.Response{data=integrationapp.DashboardUpdateResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/stock [put]
// @Router       /products/{id}/variations/{variationId}/stock [put]
func (h *StockHandler) UpdateStock(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	productID, variationID, ok := h.target(c)
	if !ok {
		return
	}

	var body UpdateStockBody
	if !h.bindJSON(c, &body) {
		return
	}

	result, err := h.updater.UpdateStockFromDashboard(c.Request.Context(), companyID, integrationapp.UpdateStockRequest{
		ProductID:   productID,
		VariationID: variationID,
		Quantity:    *body.Quantity,
		SkipRemote:  body.SkipRemote,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdatePurchasePrice godoc
// @Summary      Set product purchase price
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variationId path string false "Variation ID" format(uuid)
// @Param        request body UpdatePurchasePriceBody true "New purchase price"
// @Success      200 {object} dto.Response{data=integrationapp.DashboardUpdateResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/purchase-price [put]
// @Router       /products/{id}/variations/{variationId}/purchase-price [put]
func (h *StockHandler) UpdatePurchasePrice(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	productID, variationID, ok := h.target(c)
	if !ok {
		return
	}

	var body UpdatePurchasePriceBody
	if !h.bindJSON(c, &body) {
		return
	}
	if body.PurchasePrice.IsNegative() {
		h.BadRequest(c, "purchase_price must not be negative")
		return
	}

	result, err := h.updater.UpdatePurchasePriceFromDashboard(c.Request.Context(), companyID, integrationapp.UpdatePurchasePriceRequest{
		ProductID:   productID,
		VariationID: variationID,
		Price:       *body.PurchasePrice,
		SkipRemote:  body.SkipRemote,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// target reads the product and the optional variation from the path
func (h *StockHandler) target(c *gin.Context) (uuid.UUID, *uuid.UUID, bool) {
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return uuid.Nil, nil, false
	}
	if c.Param("variationId") == "" {
		return productID, nil, true
	}
	variationID, ok := h.pathUUID(c, "variationId")
	if !ok {
		return uuid.Nil, nil, false
	}
	return productID, &variationID, true
}
