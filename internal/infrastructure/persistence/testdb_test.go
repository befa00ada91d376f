package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedStore(t *testing.T, db *gorm.DB, companyID uuid.UUID, name, url string) *catalog.Store {
	t.Helper()
	store, err := catalog.NewStore(companyID, name, url)
	require.NoError(t, err)
	require.NoError(t, NewGormStoreRepository(db).Save(context.Background(), store))
	return store
}

func seedProduct(t *testing.T, db *gorm.DB, storeID uuid.UUID, remoteID int64, name, sku string, variationRemoteIDs ...int64) *catalog.Product {
	t.Helper()
	productType := catalog.ProductTypeSimple
	if len(variationRemoteIDs) > 0 {
		productType = catalog.ProductTypeVariable
	}
	product, err := catalog.NewProduct(storeID, remoteID, name, sku, productType)
	require.NoError(t, err)
	for _, vid := range variationRemoteIDs {
		v, err := catalog.NewProductVariation(product.ID, vid, "")
		require.NoError(t, err)
		product.Variations = append(product.Variations, *v)
	}
	require.NoError(t, NewGormProductRepository(db).Upsert(context.Background(), product))
	return product
}

func seedMapping(t *testing.T, db *gorm.DB, companyID uuid.UUID, masterSKU string, products ...*catalog.Product) *integration.ProductMapping {
	t.Helper()
	members := make([]integration.MappingMember, len(products))
	for i, p := range products {
		members[i] = integration.MappingMember{ProductID: p.ID, StoreID: p.StoreID, SKU: p.SKU}
	}
	mapping, err := integration.NewProductMapping(companyID, masterSKU, "", members)
	require.NoError(t, err)
	require.NoError(t, NewGormProductMappingRepository(db).Create(context.Background(), mapping))
	return mapping
}
