package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stocksync/backend/internal/domain/integration"
)

// ConnectorClient talks to the stock connector plugin installed on a store
type ConnectorClient struct {
	transport *httpTransport
	namespace string
}

type connectorRequest struct {
	ProductID     int64            `json:"product_id,omitempty"`
	VariationID   int64            `json:"variation_id,omitempty"`
	Quantity      *int             `json:"quantity,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

type connectorResponse struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	Quantity      *int             `json:"quantity"`
	NewStock      *int             `json:"new_stock"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
}

func newConnectorRequest(target integration.StockTarget) connectorRequest {
	if target.IsVariation() {
		return connectorRequest{VariationID: target.VariationID}
	}
	return connectorRequest{ProductID: target.ProductID}
}

func (c *ConnectorClient) path(action string) string {
	return "/wp-json/" + strings.Trim(c.namespace, "/") + "/v1/" + action
}

func (c *ConnectorClient) post(ctx context.Context, action string, req connectorRequest) (*connectorResponse, error) {
	var resp connectorResponse
	if err := c.transport.do(ctx, http.MethodPost, c.path(action), nil, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "connector reported failure"
		}
		return nil, fmt.Errorf("%w: %s", integration.ErrStoreRequestFailed, msg)
	}
	return &resp, nil
}

// UpdateStock sets the remote quantity and returns the value the store confirmed
func (c *ConnectorClient) UpdateStock(ctx context.Context, target integration.StockTarget, quantity int) (int, error) {
	req := newConnectorRequest(target)
	req.Quantity = &quantity

	resp, err := c.post(ctx, "stock/update", req)
	if err != nil {
		return 0, err
	}
	switch {
	case resp.NewStock != nil:
		return *resp.NewStock, nil
	case resp.Quantity != nil:
		return *resp.Quantity, nil
	default:
		return quantity, nil
	}
}

// UpdatePurchasePrice sets the remote purchase price and returns the confirmed value
func (c *ConnectorClient) UpdatePurchasePrice(ctx context.Context, target integration.StockTarget, price decimal.Decimal) (decimal.Decimal, error) {
	req := newConnectorRequest(target)
	req.PurchasePrice = &price

	resp, err := c.post(ctx, "purchase-price/update", req)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.PurchasePrice != nil {
		return *resp.PurchasePrice, nil
	}
	return price, nil
}

var _ integration.StockConnector = (*ConnectorClient)(nil)
