package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/integration"
)

// ProductMappingModel is the persistence model for integration.ProductMapping
type ProductMappingModel struct {
	BaseModel
	CompanyID uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_product_mappings_company_sku,priority:1"`
	MasterSKU string                    `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_mappings_company_sku,priority:2"`
	Name      string                    `gorm:"type:varchar(255);not null;default:''"`
	Items     []ProductMappingItemModel `gorm:"foreignKey:MappingID"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the model and its preloaded items
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	mapping := &integration.ProductMapping{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		MasterSKU: m.MasterSKU,
		Name:      m.Name,
		Items:     make([]integration.ProductMappingItem, len(m.Items)),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for i := range m.Items {
		mapping.Items[i] = m.Items[i].ToDomain()
	}
	return mapping
}

// ProductMappingModelFromDomain converts the mapping row only
func ProductMappingModelFromDomain(pm *integration.ProductMapping) *ProductMappingModel {
	return &ProductMappingModel{
		BaseModel: BaseModel{ID: pm.ID, CreatedAt: pm.CreatedAt, UpdatedAt: pm.UpdatedAt},
		CompanyID: pm.CompanyID,
		MasterSKU: pm.MasterSKU,
		Name:      pm.Name,
	}
}

// ProductMappingItemModel is one member of a mapping. product_id is unique
// across all mappings: a product belongs to at most one group.
type ProductMappingItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MappingID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"type:varchar(100);not null;default:''"`
	IsSource  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductMappingItemModel) TableName() string {
	return "product_mapping_items"
}

// ToDomain converts the model to a domain item
func (m *ProductMappingItemModel) ToDomain() integration.ProductMappingItem {
	return integration.ProductMappingItem{
		ID:        m.ID,
		MappingID: m.MappingID,
		ProductID: m.ProductID,
		StoreID:   m.StoreID,
		SKU:       m.SKU,
		IsSource:  m.IsSource,
		CreatedAt: m.CreatedAt,
	}
}

// ProductMappingItemModelFromDomain converts a domain item to a model
func ProductMappingItemModelFromDomain(item integration.ProductMappingItem) ProductMappingItemModel {
	return ProductMappingItemModel{
		ID:        item.ID,
		MappingID: item.MappingID,
		ProductID: item.ProductID,
		StoreID:   item.StoreID,
		SKU:       item.SKU,
		IsSource:  item.IsSource,
		CreatedAt: item.CreatedAt,
	}
}

// DismissedSuggestionModel records a suggestion key a company chose to hide
type DismissedSuggestionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dismissed_company_key,priority:1"`
	GroupKey  string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_dismissed_company_key,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DismissedSuggestionModel) TableName() string {
	return "dismissed_suggestions"
}

// WebhookLogModel is the persistence model for integration.WebhookLog
type WebhookLogModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_webhook_logs_store_created,priority:1"`
	EventType   string     `gorm:"type:varchar(50);not null"`
	Direction   string     `gorm:"type:varchar(10);not null"`
	Payload     string     `gorm:"type:jsonb;not null"`
	Status      string     `gorm:"type:varchar(10);not null;default:'pending'"`
	Message     string     `gorm:"type:text;not null;default:''"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_webhook_logs_store_created,priority:2"`
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (WebhookLogModel) TableName() string {
	return "webhook_logs"
}

// ToDomain converts the model to a domain log row
func (m *WebhookLogModel) ToDomain() integration.WebhookLog {
	return integration.WebhookLog{
		ID:          m.ID,
		StoreID:     m.StoreID,
		EventType:   m.EventType,
		Direction:   integration.WebhookDirection(m.Direction),
		Payload:     []byte(m.Payload),
		Status:      integration.WebhookStatus(m.Status),
		Message:     m.Message,
		ProductID:   m.ProductID,
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

// WebhookLogModelFromDomain converts a domain log row to a model
func WebhookLogModelFromDomain(l *integration.WebhookLog) *WebhookLogModel {
	return &WebhookLogModel{
		ID:          l.ID,
		StoreID:     l.StoreID,
		EventType:   l.EventType,
		Direction:   string(l.Direction),
		Payload:     string(l.Payload),
		Status:      string(l.Status),
		Message:     l.Message,
		ProductID:   l.ProductID,
		CreatedAt:   l.CreatedAt,
		ProcessedAt: l.ProcessedAt,
	}
}

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&StoreModel{},
		&ProductModel{},
		&ProductVariationModel{},
		&ProductMappingModel{},
		&ProductMappingItemModel{},
		&DismissedSuggestionModel{},
		&WebhookLogModel{},
	}
}
