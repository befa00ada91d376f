package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocksync/backend/internal/domain/shared"
)

// ProductType distinguishes simple items from items with variants
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

// IsValid returns true if the product type is known
func (t ProductType) IsValid() bool {
	return t == ProductTypeSimple || t == ProductTypeVariable
}

// StockStatus is derived from the stock quantity
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// StockStatusFor derives the status for a quantity: instock iff quantity > 0
func StockStatusFor(quantity int) StockStatus {
	if quantity > 0 {
		return StockStatusInStock
	}
	return StockStatusOutOfStock
}

// Product is the local mirror of one remote catalog item
type Product struct {
	shared.BaseEntity
	StoreID       uuid.UUID
	RemoteID      int64
	Name          string
	SKU           string
	Type          ProductType
	StockQuantity int
	StockStatus   StockStatus
	PurchasePrice decimal.NullDecimal
	LastSyncedAt  *time.Time

	Variations []ProductVariation
}

// ProductVariation is one variant of a variable product
type ProductVariation struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	RemoteID      int64
	SKU           string
	StockQuantity int
	StockStatus   StockStatus
	PurchasePrice decimal.NullDecimal
	Active        bool
	LastSyncedAt  *time.Time
}

// NewProduct creates a product mirror for a remote item
func NewProduct(storeID uuid.UUID, remoteID int64, name, sku string, productType ProductType) (*Product, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if remoteID <= 0 {
		return nil, shared.NewDomainError("INVALID_REMOTE_ID", "Remote product ID must be positive")
	}
	if productType == "" {
		productType = ProductTypeSimple
	}
	if !productType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRODUCT_TYPE", "Unknown product type")
	}

	return &Product{
		BaseEntity:  shared.NewBaseEntity(),
		StoreID:     storeID,
		RemoteID:    remoteID,
		Name:        strings.TrimSpace(name),
		SKU:         strings.TrimSpace(sku),
		Type:        productType,
		StockStatus: StockStatusOutOfStock,
	}, nil
}

// NewProductVariation creates a variation mirror under a product
func NewProductVariation(productID uuid.UUID, remoteID int64, sku string) (*ProductVariation, error) {
	if remoteID <= 0 {
		return nil, shared.NewDomainError("INVALID_REMOTE_ID", "Remote variation ID must be positive")
	}
	return &ProductVariation{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		RemoteID:    remoteID,
		SKU:         strings.TrimSpace(sku),
		StockStatus: StockStatusOutOfStock,
		Active:      true,
	}, nil
}

// EffectiveStock is the sum of active variation stock when the product has
// variations, otherwise the product's own quantity
func (p *Product) EffectiveStock() int {
	if len(p.Variations) == 0 {
		return p.StockQuantity
	}
	total := 0
	for i := range p.Variations {
		if p.Variations[i].Active {
			total += p.Variations[i].StockQuantity
		}
	}
	return total
}

// ApplyStock sets the product quantity and derived status
func (p *Product) ApplyStock(quantity int, at time.Time) {
	p.StockQuantity = quantity
	p.StockStatus = StockStatusFor(quantity)
	p.LastSyncedAt = &at
	p.Touch(at)
}

// ApplyVariationStock sets a variation's quantity and touches the parent's
// synced-at timestamp
func (p *Product) ApplyVariationStock(variationID uuid.UUID, quantity int, at time.Time) (*ProductVariation, error) {
	v := p.VariationByID(variationID)
	if v == nil {
		return nil, shared.ErrNotFound
	}
	v.StockQuantity = quantity
	v.StockStatus = StockStatusFor(quantity)
	v.LastSyncedAt = &at
	v.Touch(at)
	p.LastSyncedAt = &at
	p.Touch(at)
	return v, nil
}

// ApplyPurchasePrice sets the product purchase price
func (p *Product) ApplyPurchasePrice(price decimal.Decimal, at time.Time) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}
	p.PurchasePrice = decimal.NewNullDecimal(price)
	p.LastSyncedAt = &at
	p.Touch(at)
	return nil
}

// ApplyVariationPurchasePrice sets a variation's purchase price
func (p *Product) ApplyVariationPurchasePrice(variationID uuid.UUID, price decimal.Decimal, at time.Time) (*ProductVariation, error) {
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}
	v := p.VariationByID(variationID)
	if v == nil {
		return nil, shared.ErrNotFound
	}
	v.PurchasePrice = decimal.NewNullDecimal(price)
	v.LastSyncedAt = &at
	v.Touch(at)
	p.LastSyncedAt = &at
	p.Touch(at)
	return v, nil
}

// VariationByID finds a loaded variation by local ID
func (p *Product) VariationByID(id uuid.UUID) *ProductVariation {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i]
		}
	}
	return nil
}

// VariationByRemoteID finds a loaded variation by remote ID
func (p *Product) VariationByRemoteID(remoteID int64) *ProductVariation {
	for i := range p.Variations {
		if p.Variations[i].RemoteID == remoteID {
			return &p.Variations[i]
		}
	}
	return nil
}

// VariationBySKU finds a loaded variation by case-insensitive SKU. Empty SKUs
// never match.
func (p *Product) VariationBySKU(sku string) *ProductVariation {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil
	}
	for i := range p.Variations {
		if strings.EqualFold(strings.TrimSpace(p.Variations[i].SKU), sku) {
			return &p.Variations[i]
		}
	}
	return nil
}
