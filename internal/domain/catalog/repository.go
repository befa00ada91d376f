package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoreRepository defines persistence for stores
type StoreRepository interface {
	// FindByID finds a store by ID regardless of company
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)

	// FindByIDForCompany finds a store by ID within a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Store, error)

	// FindAllForCompany lists a company's stores ordered by name
	FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]Store, error)

	// FindByHost lists stores whose URL contains the given hostname
	FindByHost(ctx context.Context, host string) ([]Store, error)

	// FindAllWithCommerceCredentials lists stores that can be catalog-synced
	FindAllWithCommerceCredentials(ctx context.Context) ([]Store, error)

	// Save creates or updates a store
	Save(ctx context.Context, store *Store) error

	// UpdateLastSyncAt stamps the store's last successful synchronization
	UpdateLastSyncAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeleteForCompany deletes a store together with its products and mapping items
	DeleteForCompany(ctx context.Context, companyID, id uuid.UUID) error
}

// ProductFilter narrows product listings
type ProductFilter struct {
	StoreID *uuid.UUID
	Search  string
	Limit   int // 0 means no limit
}

// ProductRepository defines persistence for product mirrors. Products are
// always returned with their variations loaded.
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForCompany finds a product owned by one of the company's stores
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Product, error)

	// FindByIDsForCompany returns the subset of ids owned by the company's stores
	FindByIDsForCompany(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// FindByIDs loads products by ID
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByRemoteID finds a store's product by remote product ID
	FindByRemoteID(ctx context.Context, storeID uuid.UUID, remoteID int64) (*Product, error)

	// FindByVariationRemoteID finds the parent product of a store's remote variation
	FindByVariationRemoteID(ctx context.Context, storeID uuid.UUID, remoteVariationID int64) (*Product, error)

	// FindUnmappedForCompany lists products of the company's stores that are
	// not part of any mapping, in creation order
	FindUnmappedForCompany(ctx context.Context, companyID uuid.UUID, filter ProductFilter) ([]Product, error)

	// SaveStock persists a product's stock, status, price and synced-at fields
	SaveStock(ctx context.Context, product *Product) error

	// SaveVariationStock persists a variation's stock fields and touches its parent
	SaveVariationStock(ctx context.Context, product *Product, variation *ProductVariation) error

	// Upsert creates or refreshes a product and its variations keyed by
	// (store, remote ID)
	Upsert(ctx context.Context, product *Product) error
}
