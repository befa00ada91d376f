package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

// unmappedPageSize bounds each read when the whole unmapped set is loaded
const unmappedPageSize = 500

// GormProductRepository implements catalog.ProductRepository using GORM.
// Every read preloads variations.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) withVariations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Variations", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_variations.created_at ASC").Order("product_variations.remote_id ASC")
	})
}

func (r *GormProductRepository) first(query *gorm.DB) (*catalog.Product, error) {
	var model models.ProductModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.first(r.withVariations(ctx).Where("products.id = ?", id))
}

// FindByIDForCompany finds a product owned by one of the company's stores
func (r *GormProductRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	return r.first(r.withVariations(ctx).
		Joins("JOIN stores ON stores.id = products.store_id").
		Where("products.id = ? AND stores.company_id = ?", id, companyID))
}

// FindByIDsForCompany returns the subset of ids owned by the company's stores
func (r *GormProductRepository) FindByIDsForCompany(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.withVariations(ctx).
		Joins("JOIN stores ON stores.id = products.store_id").
		Where("products.id IN ? AND stores.company_id = ?", ids, companyID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindByIDs loads products by ID
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.withVariations(ctx).Where("products.id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindByRemoteID finds a store's product by remote product ID
func (r *GormProductRepository) FindByRemoteID(ctx context.Context, storeID uuid.UUID, remoteID int64) (*catalog.Product, error) {
	return r.first(r.withVariations(ctx).Where("products.store_id = ? AND products.remote_id = ?", storeID, remoteID))
}

// FindByVariationRemoteID finds the parent product of a store's remote variation
func (r *GormProductRepository) FindByVariationRemoteID(ctx context.Context, storeID uuid.UUID, remoteVariationID int64) (*catalog.Product, error) {
	parent := r.db.WithContext(ctx).Model(&models.ProductVariationModel{}).
		Select("product_id").
		Where("remote_id = ?", remoteVariationID)
	return r.first(r.withVariations(ctx).
		Where("products.store_id = ? AND products.id IN (?)", storeID, parent))
}

// FindUnmappedForCompany lists the company's products that belong to no
// mapping, oldest first. A zero Limit loads every match, page by page.
func (r *GormProductRepository) FindUnmappedForCompany(ctx context.Context, companyID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, error) {
	query := func() *gorm.DB {
		q := r.withVariations(ctx).
			Joins("JOIN stores ON stores.id = products.store_id").
			Where("stores.company_id = ?", companyID).
			Where("NOT EXISTS (SELECT 1 FROM product_mapping_items i WHERE i.product_id = products.id)")
		if filter.StoreID != nil {
			q = q.Where("products.store_id = ?", *filter.StoreID)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ?)", pattern, pattern)
		}
		return q.Order("products.created_at ASC").Order("products.remote_id ASC").Order("products.id ASC")
	}

	if filter.Limit > 0 {
		var rows []models.ProductModel
		if err := query().Limit(filter.Limit).Find(&rows).Error; err != nil {
			return nil, err
		}
		return toProducts(rows), nil
	}

	var all []catalog.Product
	for offset := 0; ; offset += unmappedPageSize {
		var rows []models.ProductModel
		if err := query().Offset(offset).Limit(unmappedPageSize).Find(&rows).Error; err != nil {
			return nil, err
		}
		all = append(all, toProducts(rows)...)
		if len(rows) < unmappedPageSize {
			break
		}
	}
	if all == nil {
		all = []catalog.Product{}
	}
	return all, nil
}

// SaveStock persists a product's stock, status, price and synced-at fields
func (r *GormProductRepository) SaveStock(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", product.ID).
		Updates(productStockColumns(product))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SaveVariationStock persists a variation's stock fields and touches its parent
func (r *GormProductRepository) SaveVariationStock(ctx context.Context, product *catalog.Product, variation *catalog.ProductVariation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductVariationModel{}).
			Where("id = ? AND product_id = ?", variation.ID, product.ID).
			Updates(map[string]any{
				"stock_quantity": variation.StockQuantity,
				"stock_status":   string(variation.StockStatus),
				"purchase_price": variation.PurchasePrice,
				"last_synced_at": variation.LastSyncedAt,
				"updated_at":     variation.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Model(&models.ProductModel{}).
			Where("id = ?", product.ID).
			Updates(map[string]any{
				"last_synced_at": product.LastSyncedAt,
				"updated_at":     product.UpdatedAt,
			}).Error
	})
}

// Upsert creates or refreshes a product and its variations keyed by
// (store, remote ID). IDs assigned by earlier rows are copied back onto the
// domain objects.
func (r *GormProductRepository) Upsert(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ProductModelFromDomain(product)
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}, {Name: "remote_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "sku", "type", "stock_quantity", "stock_status",
				"purchase_price", "last_synced_at", "updated_at",
			}),
		}).Create(model).Error; err != nil {
			return err
		}

		var ids []uuid.UUID
		if err := tx.Model(&models.ProductModel{}).
			Where("store_id = ? AND remote_id = ?", product.StoreID, product.RemoteID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return shared.ErrNotFound
		}
		id := ids[0]
		product.ID = id

		if len(product.Variations) == 0 {
			return nil
		}
		variations := make([]models.ProductVariationModel, len(product.Variations))
		for i := range product.Variations {
			product.Variations[i].ProductID = id
			variations[i] = *models.ProductVariationModelFromDomain(&product.Variations[i])
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "remote_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"sku", "stock_quantity", "stock_status", "purchase_price",
				"active", "last_synced_at", "updated_at",
			}),
		}).Create(&variations).Error; err != nil {
			return err
		}

		var stored []models.ProductVariationModel
		if err := tx.Select("id", "remote_id").Where("product_id = ?", id).Find(&stored).Error; err != nil {
			return err
		}
		byRemote := make(map[int64]uuid.UUID, len(stored))
		for _, v := range stored {
			byRemote[v.RemoteID] = v.ID
		}
		for i := range product.Variations {
			if vid, ok := byRemote[product.Variations[i].RemoteID]; ok {
				product.Variations[i].ID = vid
			}
		}
		return nil
	})
}

func productStockColumns(p *catalog.Product) map[string]any {
	return map[string]any{
		"stock_quantity": p.StockQuantity,
		"stock_status":   string(p.StockStatus),
		"purchase_price": p.PurchasePrice,
		"last_synced_at": p.LastSyncedAt,
		"updated_at":     p.UpdatedAt,
	}
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
