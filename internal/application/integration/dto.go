package integration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocksync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Product Mapping DTOs
// ---------------------------------------------------------------------------

// MappingItemResponse represents one member of a mapping
type MappingItemResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	StoreName     string    `json:"store_name"`
	ProductName   string    `json:"product_name"`
	SKU           string    `json:"sku"`
	IsSource      bool      `json:"is_source"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// MappingResponse represents a product mapping with recomputed stock
type MappingResponse struct {
	ID         uuid.UUID             `json:"id"`
	MasterSKU  string                `json:"master_sku"`
	Name       string                `json:"name,omitempty"`
	Items      []MappingItemResponse `json:"items"`
	StoreCount int                   `json:"store_count"`
	TotalStock int                   `json:"total_stock"`
	RealStock  int                   `json:"real_stock"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// CreateMappingRequest represents a request to create a mapping
type CreateMappingRequest struct {
	MasterSKU  string      `json:"master_sku" binding:"required,master_sku"`
	Name       string      `json:"name" binding:"max=200"`
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=2"`
}

// UpdateMappingRequest represents a request to rename a mapping
type UpdateMappingRequest struct {
	MasterSKU *string `json:"master_sku,omitempty" binding:"omitempty,master_sku"`
	Name      *string `json:"name,omitempty" binding:"omitempty,max=200"`
}

// MappingProductsRequest lists products to add to or remove from a mapping
type MappingProductsRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

// ListMappingsRequest holds list filters
type ListMappingsRequest struct {
	Search    string
	StoreID   *uuid.UUID
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// InventoryStoreLine is one store's stock for a mapped item
type InventoryStoreLine struct {
	StoreID       uuid.UUID `json:"store_id"`
	StoreName     string    `json:"store_name"`
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	StockQuantity int       `json:"stock_quantity"`
	IsSource      bool      `json:"is_source"`
}

// InventoryLine is the consolidated stock of one mapping
type InventoryLine struct {
	MappingID  uuid.UUID            `json:"mapping_id"`
	MasterSKU  string               `json:"master_sku"`
	Name       string               `json:"name,omitempty"`
	Stores     []InventoryStoreLine `json:"stores"`
	TotalStock int                  `json:"total_stock"`
	RealStock  int                  `json:"real_stock"`
}

// ---------------------------------------------------------------------------
// Matching DTOs
// ---------------------------------------------------------------------------

// SuggestionProductResponse is one member of a suggestion
type SuggestionProductResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	StoreName     string    `json:"store_name"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	StockQuantity int       `json:"stock_quantity"`
}

// SuggestionResponse is a candidate mapping
type SuggestionResponse struct {
	Key        string                      `json:"key"`
	MatchType  integration.GroupKeyKind    `json:"match_type"`
	MasterSKU  string                      `json:"master_sku"`
	Name       string                      `json:"name"`
	Products   []SuggestionProductResponse `json:"products"`
	StoreCount int                         `json:"store_count"`
	TotalStock int                         `json:"total_stock"`
	RealStock  int                         `json:"real_stock"`
}

// AutoMatchResult reports how many suggestions became mappings
type AutoMatchResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// DismissSuggestionRequest identifies a suggestion by key
type DismissSuggestionRequest struct {
	Key string `json:"key" binding:"required,max=255"`
}

// SearchCandidatesRequest searches unmapped products
type SearchCandidatesRequest struct {
	Query   string     `form:"q"`
	StoreID *uuid.UUID
	Limit   int        `form:"limit"`
}

// CandidateResponse is an unmapped product available for manual mapping
type CandidateResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	StoreName     string    `json:"store_name"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	StockQuantity int       `json:"stock_quantity"`
}

// ---------------------------------------------------------------------------
// Stock Sync DTOs
// ---------------------------------------------------------------------------

// WebhookData is the item section of an inbound stock webhook
type WebhookData struct {
	ProductID     *int64           `json:"product_id,omitempty"`
	VariationID   *int64           `json:"variation_id,omitempty"`
	SKU           string           `json:"sku,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	OrderID       *int64           `json:"order_id,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

// WebhookEvent is a verified inbound webhook
type WebhookEvent struct {
	Event    string
	StoreURL string
	Data     WebhookData
	// RawPayload is stored verbatim in the webhook log
	RawPayload []byte
}

// WebhookResult is returned to the webhook sender
type WebhookResult struct {
	Success bool   `json:"success"`
	Synced  int    `json:"synced"`
	Message string `json:"message"`
}

// UpdateStockRequest is a dashboard stock edit
type UpdateStockRequest struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	Quantity    int
	SkipRemote  bool
}

// UpdatePurchasePriceRequest is a dashboard purchase price edit
type UpdatePurchasePriceRequest struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	Price       decimal.Decimal
	SkipRemote  bool
}

// DashboardUpdateResult reports a dashboard edit
type DashboardUpdateResult struct {
	LocalUpdated bool   `json:"local_updated"`
	RemoteSynced bool   `json:"remote_synced"`
	Message      string `json:"message"`
}

// OutboundResult reports a single remote write
type OutboundResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Webhook Log DTOs
// ---------------------------------------------------------------------------

// WebhookLogResponse represents one audit row
type WebhookLogResponse struct {
	ID          uuid.UUID                    `json:"id"`
	EventType   string                       `json:"event_type"`
	Direction   integration.WebhookDirection `json:"direction"`
	Status      integration.WebhookStatus    `json:"status"`
	Message     string                       `json:"message,omitempty"`
	ProductID   *uuid.UUID                   `json:"product_id,omitempty"`
	Payload     string                       `json:"payload"`
	CreatedAt   time.Time                    `json:"created_at"`
	ProcessedAt *time.Time                   `json:"processed_at,omitempty"`
}

// ListWebhookLogsRequest holds log list filters
type ListWebhookLogsRequest struct {
	Direction string `form:"direction" binding:"omitempty,oneof=inbound outbound"`
	Status    string `form:"status" binding:"omitempty,oneof=pending success failed"`
	EventType string `form:"event_type"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// WebhookStatsResponse summarizes a store's sync activity
type WebhookStatsResponse struct {
	Since          time.Time  `json:"since"`
	Total          int64      `json:"total"`
	Pending        int64      `json:"pending"`
	Success        int64      `json:"success"`
	Failed         int64      `json:"failed"`
	Inbound        int64      `json:"inbound"`
	Outbound       int64      `json:"outbound"`
	SuccessRate    float64    `json:"success_rate"`
	LastReceivedAt *time.Time `json:"last_received_at,omitempty"`
}

// ---------------------------------------------------------------------------
// Store DTOs
// ---------------------------------------------------------------------------

// RegisterStoreRequest onboards a store
type RegisterStoreRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	URL            string `json:"url" binding:"required,url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	SyncAPIKey     string `json:"sync_api_key"`
	SyncAPISecret  string `json:"sync_api_secret"`
}

// RotateCredentialsRequest replaces one or both credential pairs. Nil pairs are kept.
type RotateCredentialsRequest struct {
	ConsumerKey    *string `json:"consumer_key,omitempty"`
	ConsumerSecret *string `json:"consumer_secret,omitempty"`
	SyncAPIKey     *string `json:"sync_api_key,omitempty"`
	SyncAPISecret  *string `json:"sync_api_secret,omitempty"`
}

// StoreResponse never carries credentials
type StoreResponse struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	URL                    string     `json:"url"`
	HasCommerceCredentials bool       `json:"has_commerce_credentials"`
	SyncEnabled            bool       `json:"sync_enabled"`
	LastSyncAt             *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// CatalogSyncResult reports a catalog pull
type CatalogSyncResult struct {
	StoreID    uuid.UUID `json:"store_id"`
	Products   int       `json:"products"`
	Variations int       `json:"variations"`
	Failed     int       `json:"failed"`
}
