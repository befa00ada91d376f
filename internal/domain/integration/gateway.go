package integration

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stocksync/backend/internal/domain/catalog"
)

// ---------------------------------------------------------------------------
// Stock connector port
// ---------------------------------------------------------------------------

// StockTarget addresses one remote item. Exactly one of the IDs is set.
type StockTarget struct {
	ProductID   int64
	VariationID int64
}

// IsVariation reports whether the target is a variation
func (t StockTarget) IsVariation() bool {
	return t.VariationID > 0
}

// RemoteID returns whichever ID is set
func (t StockTarget) RemoteID() int64 {
	if t.IsVariation() {
		return t.VariationID
	}
	return t.ProductID
}

// Kind returns the cooldown item kind for the target
func (t StockTarget) Kind() ItemKind {
	if t.IsVariation() {
		return ItemKindVariation
	}
	return ItemKindProduct
}

// StockConnector is the lightweight first-party connector installed on a store
type StockConnector interface {
	// UpdateStock sets the remote quantity and returns the confirmed value
	UpdateStock(ctx context.Context, target StockTarget, quantity int) (int, error)

	// UpdatePurchasePrice sets the remote purchase price and returns the confirmed value
	UpdatePurchasePrice(ctx context.Context, target StockTarget, price decimal.Decimal) (decimal.Decimal, error)
}

// StockConnectorFactory builds a connector for a store, decrypting its
// credentials. Returns ErrSyncCredentialsMissing or ErrCredentialDecrypt.
type StockConnectorFactory interface {
	ConnectorFor(store *catalog.Store) (StockConnector, error)
}

// ---------------------------------------------------------------------------
// Commerce REST catalog port
// ---------------------------------------------------------------------------

// RemoteProduct is a catalog item as reported by the store's REST API
type RemoteProduct struct {
	ID            int64
	Name          string
	SKU           string
	Type          string
	StockQuantity *int
	ManageStock   bool
	PurchasePrice *decimal.Decimal
}

// RemoteVariation is a variant as reported by the store's REST API
type RemoteVariation struct {
	ID            int64
	SKU           string
	StockQuantity *int
	Status        string
	PurchasePrice *decimal.Decimal
}

// CatalogClient reads the store catalog through the commerce REST API
type CatalogClient interface {
	// ListProducts returns one page of products (1-indexed); an empty page ends the listing
	ListProducts(ctx context.Context, page, perPage int) ([]RemoteProduct, error)

	// ListVariations returns all variations of a variable product
	ListVariations(ctx context.Context, productID int64) ([]RemoteVariation, error)
}

// CatalogClientFactory builds a catalog client for a store
type CatalogClientFactory interface {
	CatalogClientFor(store *catalog.Store) (CatalogClient, error)
}
