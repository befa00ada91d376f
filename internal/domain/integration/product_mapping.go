package integration

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// ProductMapping Entity
// ---------------------------------------------------------------------------

// ProductMapping groups products from different stores that represent the
// same physical item. Exactly one item is the source; only its stock changes
// propagate to the other items.
type ProductMapping struct {
	// ID is the unique identifier of this mapping
	ID uuid.UUID
	// CompanyID scopes the mapping and its master SKU
	CompanyID uuid.UUID
	// MasterSKU is unique per company
	MasterSKU string
	// Name is an optional display name
	Name string
	// Items are the member products, in creation order
	Items []ProductMappingItem
	// CreatedAt is when this mapping was created
	CreatedAt time.Time
	// UpdatedAt is when this mapping was last updated
	UpdatedAt time.Time
}

// ProductMappingItem links one product to a mapping
type ProductMappingItem struct {
	ID        uuid.UUID
	MappingID uuid.UUID
	ProductID uuid.UUID
	StoreID   uuid.UUID
	// SKU is a snapshot of the product SKU when the item was added
	SKU string
	// IsSource is set once at creation and never changed
	IsSource  bool
	CreatedAt time.Time
}

// MappingMember is the information needed to add a product to a mapping
type MappingMember struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
	SKU       string
}

// MaxMasterSKULength bounds a mapping's master SKU
const MaxMasterSKULength = 100

// NormalizeMasterSKU trims sku and checks it is 1-100 characters long
func NormalizeMasterSKU(sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" || utf8.RuneCountInString(sku) > MaxMasterSKULength {
		return "", ErrInvalidMasterSKU
	}
	return sku, nil
}

// NewProductMapping creates a mapping from members in input order. The first
// member becomes the source. Duplicate product IDs are collapsed.
func NewProductMapping(companyID uuid.UUID, masterSKU, name string, members []MappingMember) (*ProductMapping, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	masterSKU, err := NormalizeMasterSKU(masterSKU)
	if err != nil {
		return nil, err
	}

	members = dedupeMembers(members)
	if len(members) < 2 {
		return nil, ErrMappingTooFewProducts
	}
	if distinctStores(members) < 2 {
		return nil, ErrMappingTooFewStores
	}

	now := time.Now()
	m := &ProductMapping{
		ID:        uuid.New(),
		CompanyID: companyID,
		MasterSKU: masterSKU,
		Name:      strings.TrimSpace(name),
		Items:     make([]ProductMappingItem, 0, len(members)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, member := range members {
		m.Items = append(m.Items, m.newItem(member, i == 0, now.Add(time.Duration(i)*time.Microsecond)))
	}
	return m, nil
}

func (m *ProductMapping) newItem(member MappingMember, isSource bool, at time.Time) ProductMappingItem {
	return ProductMappingItem{
		ID:        uuid.New(),
		MappingID: m.ID,
		ProductID: member.ProductID,
		StoreID:   member.StoreID,
		SKU:       strings.TrimSpace(member.SKU),
		IsSource:  isSource,
		CreatedAt: at,
	}
}

// Rename changes the master SKU and display name
func (m *ProductMapping) Rename(masterSKU, name string) error {
	masterSKU, err := NormalizeMasterSKU(masterSKU)
	if err != nil {
		return err
	}
	m.MasterSKU = masterSKU
	m.Name = strings.TrimSpace(name)
	m.UpdatedAt = time.Now()
	return nil
}

// AddMembers appends non-source items for members not yet in the mapping and
// returns the newly created items. Members already present are no-ops.
func (m *ProductMapping) AddMembers(members []MappingMember) []ProductMappingItem {
	now := time.Now()
	added := make([]ProductMappingItem, 0, len(members))
	for _, member := range dedupeMembers(members) {
		if m.ItemForProduct(member.ProductID) != nil {
			continue
		}
		item := m.newItem(member, false, now.Add(time.Duration(len(added))*time.Microsecond))
		m.Items = append(m.Items, item)
		added = append(added, item)
	}
	if len(added) > 0 {
		m.UpdatedAt = now
	}
	return added
}

// RemoveProducts drops the items for the given products. Unknown product IDs
// are ignored. The source item cannot be removed and the mapping must keep at
// least two items from two stores.
func (m *ProductMapping) RemoveProducts(productIDs []uuid.UUID) ([]uuid.UUID, error) {
	drop := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		drop[id] = struct{}{}
	}

	kept := make([]ProductMappingItem, 0, len(m.Items))
	removed := make([]uuid.UUID, 0, len(productIDs))
	for _, item := range m.Items {
		if _, ok := drop[item.ProductID]; !ok {
			kept = append(kept, item)
			continue
		}
		if item.IsSource {
			return nil, ErrCannotRemoveSource
		}
		removed = append(removed, item.ProductID)
	}
	if len(removed) == 0 {
		return removed, nil
	}

	stores := make(map[uuid.UUID]struct{}, len(kept))
	for _, item := range kept {
		stores[item.StoreID] = struct{}{}
	}
	if len(kept) < 2 || len(stores) < 2 {
		return nil, ErrMappingWouldShrink
	}

	m.Items = kept
	m.UpdatedAt = time.Now()
	return removed, nil
}

// SourceItem returns the item flagged as source
func (m *ProductMapping) SourceItem() *ProductMappingItem {
	for i := range m.Items {
		if m.Items[i].IsSource {
			return &m.Items[i]
		}
	}
	return nil
}

// ItemForProduct returns the item for a product, or nil
func (m *ProductMapping) ItemForProduct(productID uuid.UUID) *ProductMappingItem {
	for i := range m.Items {
		if m.Items[i].ProductID == productID {
			return &m.Items[i]
		}
	}
	return nil
}

// IsSourceProduct reports whether the product is the mapping's source
func (m *ProductMapping) IsSourceProduct(productID uuid.UUID) bool {
	item := m.ItemForProduct(productID)
	return item != nil && item.IsSource
}

// Siblings returns the items that do not belong to the given store
func (m *ProductMapping) Siblings(originStoreID uuid.UUID) []ProductMappingItem {
	out := make([]ProductMappingItem, 0, len(m.Items))
	for _, item := range m.Items {
		if item.StoreID != originStoreID {
			out = append(out, item)
		}
	}
	return out
}

// StoreCount returns the number of distinct stores in the mapping
func (m *ProductMapping) StoreCount() int {
	stores := make(map[uuid.UUID]struct{}, len(m.Items))
	for _, item := range m.Items {
		stores[item.StoreID] = struct{}{}
	}
	return len(stores)
}

// ProductIDs returns the product IDs of all items in order
func (m *ProductMapping) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(m.Items))
	for i, item := range m.Items {
		ids[i] = item.ProductID
	}
	return ids
}

func dedupeMembers(members []MappingMember) []MappingMember {
	seen := make(map[uuid.UUID]struct{}, len(members))
	out := make([]MappingMember, 0, len(members))
	for _, member := range members {
		if _, ok := seen[member.ProductID]; ok {
			continue
		}
		seen[member.ProductID] = struct{}{}
		out = append(out, member)
	}
	return out
}

func distinctStores(members []MappingMember) int {
	stores := make(map[uuid.UUID]struct{}, len(members))
	for _, member := range members {
		stores[member.StoreID] = struct{}{}
	}
	return len(stores)
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// ProductMappingReader defines the interface for reading product mappings
type ProductMappingReader interface {
	// FindByID finds a company's mapping with its items
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*ProductMapping, error)

	// FindByProductID finds the mapping containing a product, or ErrMappingNotFound
	FindByProductID(ctx context.Context, productID uuid.UUID) (*ProductMapping, error)

	// MasterSKUsByProduct returns productID -> masterSku for products already mapped
	MasterSKUsByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error)

	// ExistsByMasterSKU checks master SKU uniqueness, optionally excluding a mapping
	ExistsByMasterSKU(ctx context.Context, companyID uuid.UUID, masterSKU string, excludeID *uuid.UUID) (bool, error)
}

// ProductMappingFinder defines the interface for searching product mappings
type ProductMappingFinder interface {
	// FindAll lists a company's mappings with items, newest first
	FindAll(ctx context.Context, companyID uuid.UUID, filter ProductMappingFilter) ([]ProductMapping, error)

	// Count counts mappings matching the filter
	Count(ctx context.Context, companyID uuid.UUID, filter ProductMappingFilter) (int64, error)
}

// ProductMappingWriter defines the interface for persisting product mappings
type ProductMappingWriter interface {
	// Create inserts a mapping and all its items atomically
	Create(ctx context.Context, mapping *ProductMapping) error

	// AddItems inserts items; an existing (mapping, product) pair is a no-op
	AddItems(ctx context.Context, items []ProductMappingItem) error

	// RemoveItems deletes the items for the given products
	RemoveItems(ctx context.Context, mappingID uuid.UUID, productIDs []uuid.UUID) error

	// Update persists master SKU and name
	Update(ctx context.Context, mapping *ProductMapping) error

	// Delete removes a mapping and all of its items
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// ProductMappingRepository defines the full interface for product mapping persistence
type ProductMappingRepository interface {
	ProductMappingReader
	ProductMappingFinder
	ProductMappingWriter
}

// ProductMappingFilter defines filter criteria for product mappings
type ProductMappingFilter struct {
	// Search matches master SKU or name (optional)
	Search string
	// StoreID keeps mappings that contain an item of this store (optional)
	StoreID *uuid.UUID
	// OrderBy is a column name; unknown values fall back to created_at
	OrderBy string
	// OrderDir is ASC or DESC (default)
	OrderDir string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}
