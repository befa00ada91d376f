package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/shared"
)

// StoreModel is the persistence model for catalog.Store
type StoreModel struct {
	BaseModel
	CompanyID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_stores_company_url,priority:1"`
	Name           string     `gorm:"type:varchar(200);not null"`
	URL            string     `gorm:"type:varchar(500);not null;uniqueIndex:idx_stores_company_url,priority:2"`
	Host           string     `gorm:"type:varchar(255);not null;index"`
	ConsumerKey    string     `gorm:"type:text"`
	ConsumerSecret string     `gorm:"type:text"`
	SyncEnabled    bool       `gorm:"not null;default:false"`
	SyncAPIKey     string     `gorm:"type:text"`
	SyncAPISecret  string     `gorm:"type:text"`
	LastSyncAt     *time.Time
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the model to a domain store
func (m *StoreModel) ToDomain() *catalog.Store {
	return &catalog.Store{
		BaseEntity:     m.BaseModel.ToDomain(),
		CompanyID:      m.CompanyID,
		Name:           m.Name,
		URL:            m.URL,
		ConsumerKey:    m.ConsumerKey,
		ConsumerSecret: m.ConsumerSecret,
		SyncEnabled:    m.SyncEnabled,
		SyncAPIKey:     m.SyncAPIKey,
		SyncAPISecret:  m.SyncAPISecret,
		LastSyncAt:     m.LastSyncAt,
	}
}

// StoreModelFromDomain converts a domain store to a model. Host is derived
// from the URL so lookups by webhook origin can use an index.
func StoreModelFromDomain(s *catalog.Store) *StoreModel {
	m := &StoreModel{
		CompanyID:      s.CompanyID,
		Name:           s.Name,
		URL:            s.URL,
		Host:           s.Host(),
		ConsumerKey:    s.ConsumerKey,
		ConsumerSecret: s.ConsumerSecret,
		SyncEnabled:    s.SyncEnabled,
		SyncAPIKey:     s.SyncAPIKey,
		SyncAPISecret:  s.SyncAPISecret,
		LastSyncAt:     s.LastSyncAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	BaseModel
	StoreID       uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_products_store_remote,priority:1"`
	RemoteID      int64               `gorm:"not null;uniqueIndex:idx_products_store_remote,priority:2"`
	Name          string              `gorm:"type:varchar(500);not null;default:''"`
	SKU           string              `gorm:"type:varchar(100);not null;default:'';index"`
	Type          string              `gorm:"type:varchar(20);not null;default:'simple'"`
	StockQuantity int                 `gorm:"not null;default:0"`
	StockStatus   string              `gorm:"type:varchar(20);not null;default:'outofstock'"`
	PurchasePrice decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	LastSyncedAt  *time.Time
	Variations    []ProductVariationModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model and any preloaded variations
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		StoreID:       m.StoreID,
		RemoteID:      m.RemoteID,
		Name:          m.Name,
		SKU:           m.SKU,
		Type:          catalog.ProductType(m.Type),
		StockQuantity: m.StockQuantity,
		StockStatus:   catalog.StockStatus(m.StockStatus),
		PurchasePrice: m.PurchasePrice,
		LastSyncedAt:  m.LastSyncedAt,
	}
	if len(m.Variations) > 0 {
		p.Variations = make([]catalog.ProductVariation, len(m.Variations))
		for i := range m.Variations {
			p.Variations[i] = *m.Variations[i].ToDomain()
		}
	}
	return p
}

// ProductModelFromDomain converts the product row only; variations are
// written separately.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		StoreID:       p.StoreID,
		RemoteID:      p.RemoteID,
		Name:          p.Name,
		SKU:           p.SKU,
		Type:          string(p.Type),
		StockQuantity: p.StockQuantity,
		StockStatus:   string(p.StockStatus),
		PurchasePrice: p.PurchasePrice,
		LastSyncedAt:  p.LastSyncedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// ProductVariationModel is the persistence model for catalog.ProductVariation
type ProductVariationModel struct {
	BaseModel
	ProductID     uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_variations_product_remote,priority:1"`
	RemoteID      int64               `gorm:"not null;uniqueIndex:idx_variations_product_remote,priority:2"`
	SKU           string              `gorm:"type:varchar(100);not null;default:''"`
	StockQuantity int                 `gorm:"not null;default:0"`
	StockStatus   string              `gorm:"type:varchar(20);not null;default:'outofstock'"`
	PurchasePrice decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	Active        bool                `gorm:"not null;default:true"`
	LastSyncedAt  *time.Time
}

// TableName returns the table name for GORM
func (ProductVariationModel) TableName() string {
	return "product_variations"
}

// ToDomain converts the model to a domain variation
func (m *ProductVariationModel) ToDomain() *catalog.ProductVariation {
	return &catalog.ProductVariation{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ProductID:     m.ProductID,
		RemoteID:      m.RemoteID,
		SKU:           m.SKU,
		StockQuantity: m.StockQuantity,
		StockStatus:   catalog.StockStatus(m.StockStatus),
		PurchasePrice: m.PurchasePrice,
		Active:        m.Active,
		LastSyncedAt:  m.LastSyncedAt,
	}
}

// ProductVariationModelFromDomain converts a domain variation to a model
func ProductVariationModelFromDomain(v *catalog.ProductVariation) *ProductVariationModel {
	m := &ProductVariationModel{
		ProductID:     v.ProductID,
		RemoteID:      v.RemoteID,
		SKU:           v.SKU,
		StockQuantity: v.StockQuantity,
		StockStatus:   string(v.StockStatus),
		PurchasePrice: v.PurchasePrice,
		Active:        v.Active,
		LastSyncedAt:  v.LastSyncedAt,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
