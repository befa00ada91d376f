package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// CatalogPageSize is the page size used when pulling remote catalogs
const CatalogPageSize = 100

// maxCatalogPages bounds a single pull against misbehaving pagination
const maxCatalogPages = 1000

// CatalogSyncService pulls remote catalogs into the local product mirror
type CatalogSyncService struct {
	storeRepo   catalog.StoreRepository
	productRepo catalog.ProductRepository
	clients     integration.CatalogClientFactory
	clock       shared.Clock
	logger      *zap.Logger
}

// NewCatalogSyncService creates a new CatalogSyncService
func NewCatalogSyncService(
	storeRepo catalog.StoreRepository,
	productRepo catalog.ProductRepository,
	clients integration.CatalogClientFactory,
	clock shared.Clock,
	logger *zap.Logger,
) *CatalogSyncService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogSyncService{
		storeRepo:   storeRepo,
		productRepo: productRepo,
		clients:     clients,
		clock:       clock,
		logger:      logger,
	}
}

// SyncStoreForCompany runs a catalog pull for a store owned by the company
func (s *CatalogSyncService) SyncStoreForCompany(ctx context.Context, companyID, storeID uuid.UUID) (*CatalogSyncResult, error) {
	if _, err := s.storeRepo.FindByIDForCompany(ctx, companyID, storeID); err != nil {
		return nil, err
	}
	return s.SyncStore(ctx, storeID)
}

// SyncStore pulls every product and variation of a store and upserts them.
// Items that fail to persist are counted and skipped.
func (s *CatalogSyncService) SyncStore(ctx context.Context, storeID uuid.UUID) (*CatalogSyncResult, error) {
	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.CatalogClientFor(store)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("store_id", store.ID.String()), zap.String("url", store.URL))
	result := &CatalogSyncResult{StoreID: store.ID}
	start := time.Now()

	for page := 1; page <= maxCatalogPages; page++ {
		remote, err := client.ListProducts(ctx, page, CatalogPageSize)
		if err != nil {
			return result, fmt.Errorf("failed to list products page %d: %w", page, err)
		}
		if len(remote) == 0 {
			break
		}

		for _, rp := range remote {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			variations, err := s.syncProduct(ctx, client, store.ID, rp)
			if err != nil {
				result.Failed++
				log.Warn("Failed to sync remote product", zap.Int64("remote_id", rp.ID), zap.Error(err))
				continue
			}
			result.Products++
			result.Variations += variations
		}

		if len(remote) < CatalogPageSize {
			break
		}
	}

	if err := s.storeRepo.UpdateLastSyncAt(ctx, store.ID, s.clock.Now()); err != nil {
		log.Warn("Failed to update store last sync", zap.Error(err))
	}

	log.Info("Catalog sync completed",
		zap.Int("products", result.Products),
		zap.Int("variations", result.Variations),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (s *CatalogSyncService) syncProduct(ctx context.Context, client integration.CatalogClient, storeID uuid.UUID, rp integration.RemoteProduct) (int, error) {
	now := s.clock.Now()

	product, err := s.productRepo.FindByRemoteID(ctx, storeID, rp.ID)
	switch {
	case err == nil:
		product.Name = rp.Name
		product.SKU = rp.SKU
		if t := catalog.ProductType(rp.Type); t.IsValid() {
			product.Type = t
		}
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, integration.ErrProductNotFound):
		product, err = catalog.NewProduct(storeID, rp.ID, rp.Name, rp.SKU, remoteProductType(rp.Type))
		if err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	if rp.StockQuantity != nil {
		product.ApplyStock(*rp.StockQuantity, now)
	} else {
		product.LastSyncedAt = &now
	}
	if rp.PurchasePrice != nil && !rp.PurchasePrice.IsNegative() {
		product.PurchasePrice = decimal.NewNullDecimal(*rp.PurchasePrice)
	}

	variations := 0
	if product.Type == catalog.ProductTypeVariable {
		remoteVariations, err := client.ListVariations(ctx, rp.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to list variations: %w", err)
		}
		for _, rv := range remoteVariations {
			if err := mergeVariation(product, rv, now); err != nil {
				return 0, err
			}
			variations++
		}
	}

	if err := s.productRepo.Upsert(ctx, product); err != nil {
		return 0, err
	}
	return variations, nil
}

// mergeVariation refreshes an existing variation by remote ID or appends a new one
func mergeVariation(product *catalog.Product, rv integration.RemoteVariation, at time.Time) error {
	v := product.VariationByRemoteID(rv.ID)
	if v == nil {
		nv, err := catalog.NewProductVariation(product.ID, rv.ID, rv.SKU)
		if err != nil {
			return err
		}
		product.Variations = append(product.Variations, *nv)
		v = &product.Variations[len(product.Variations)-1]
	}
	v.SKU = rv.SKU
	v.Active = rv.Status == "" || rv.Status == "publish"
	if rv.StockQuantity != nil {
		v.StockQuantity = *rv.StockQuantity
		v.StockStatus = catalog.StockStatusFor(*rv.StockQuantity)
	}
	if rv.PurchasePrice != nil && !rv.PurchasePrice.IsNegative() {
		v.PurchasePrice = decimal.NewNullDecimal(*rv.PurchasePrice)
	}
	v.LastSyncedAt = &at
	v.UpdatedAt = at
	return nil
}

func remoteProductType(t string) catalog.ProductType {
	if catalog.ProductType(t) == catalog.ProductTypeVariable {
		return catalog.ProductTypeVariable
	}
	return catalog.ProductTypeSimple
}
