package ecommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stocksync/backend/internal/domain/integration"
)

const commerceAPIPrefix = "/wp-json/wc/v3"

// purchasePriceMetaKeys are the product meta keys read as purchase price
var purchasePriceMetaKeys = []string{"_purchase_price", "purchase_price", "_wc_cog_cost"}

// CommerceClient reads a store catalog through the commerce REST API
type CommerceClient struct {
	transport *httpTransport
}

type commerceMeta struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type commerceProduct struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	SKU           string         `json:"sku"`
	Type          string         `json:"type"`
	ManageStock   bool           `json:"manage_stock"`
	StockQuantity *int           `json:"stock_quantity"`
	MetaData      []commerceMeta `json:"meta_data"`
}

type commerceVariation struct {
	ID            int64          `json:"id"`
	SKU           string         `json:"sku"`
	Status        string         `json:"status"`
	StockQuantity *int           `json:"stock_quantity"`
	MetaData      []commerceMeta `json:"meta_data"`
}

// ListProducts returns one page of products (1-indexed)
func (c *CommerceClient) ListProducts(ctx context.Context, page, perPage int) ([]integration.RemoteProduct, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 100
	}

	var rows []commerceProduct
	query := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
		"orderby":  "id",
		"order":    "asc",
	}
	if err := c.transport.do(ctx, http.MethodGet, commerceAPIPrefix+"/products", query, nil, &rows); err != nil {
		return nil, err
	}

	products := make([]integration.RemoteProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, integration.RemoteProduct{
			ID:            row.ID,
			Name:          row.Name,
			SKU:           row.SKU,
			Type:          row.Type,
			StockQuantity: row.StockQuantity,
			ManageStock:   row.ManageStock,
			PurchasePrice: purchasePrice(row.MetaData),
		})
	}
	return products, nil
}

// ListVariations returns all variations of a variable product
func (c *CommerceClient) ListVariations(ctx context.Context, productID int64) ([]integration.RemoteVariation, error) {
	path := commerceAPIPrefix + "/products/" + strconv.FormatInt(productID, 10) + "/variations"

	var all []integration.RemoteVariation
	for page := 1; ; page++ {
		var rows []commerceVariation
		query := map[string]string{"page": strconv.Itoa(page), "per_page": "100"}
		if err := c.transport.do(ctx, http.MethodGet, path, query, nil, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			all = append(all, integration.RemoteVariation{
				ID:            row.ID,
				SKU:           row.SKU,
				StockQuantity: row.StockQuantity,
				Status:        row.Status,
				PurchasePrice: purchasePrice(row.MetaData),
			})
		}
		if len(rows) < 100 {
			return all, nil
		}
	}
}

// purchasePrice reads the first parseable purchase price meta value.
// Values may be JSON strings or numbers.
func purchasePrice(meta []commerceMeta) *decimal.Decimal {
	for _, key := range purchasePriceMetaKeys {
		for _, m := range meta {
			if m.Key != key {
				continue
			}
			raw := strings.Trim(strings.TrimSpace(string(m.Value)), `"`)
			if raw == "" {
				continue
			}
			if d, err := decimal.NewFromString(raw); err == nil {
				return &d
			}
		}
	}
	return nil
}

var _ integration.CatalogClient = (*CommerceClient)(nil)
