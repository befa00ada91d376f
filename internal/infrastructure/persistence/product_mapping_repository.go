package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements ProductMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

func (r *GormProductMappingRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_mapping_items.created_at ASC")
	})
}

// ---------------------------------------------------------------------------
// ProductMappingReader implementation
// ---------------------------------------------------------------------------

// FindByID finds a company's mapping with its items
func (r *GormProductMappingRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.withItems(ctx).First(&model, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProductID finds the mapping containing a product
func (r *GormProductMappingRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*integration.ProductMapping, error) {
	member := r.db.WithContext(ctx).Model(&models.ProductMappingItemModel{}).
		Select("mapping_id").
		Where("product_id = ?", productID)

	var model models.ProductMappingModel
	if err := r.withItems(ctx).Where("id IN (?)", member).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// MasterSKUsByProduct returns productID -> master SKU for products already mapped
func (r *GormProductMappingRepository) MasterSKUsByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ProductID uuid.UUID
		MasterSKU string
	}
	if err := r.db.WithContext(ctx).
		Table("product_mapping_items AS i").
		Select("i.product_id AS product_id, m.master_sku AS master_sku").
		Joins("JOIN product_mappings m ON m.id = i.mapping_id").
		Where("i.product_id IN ?", productIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row.MasterSKU
	}
	return out, nil
}

// ExistsByMasterSKU checks master SKU uniqueness, optionally excluding a mapping
func (r *GormProductMappingRepository) ExistsByMasterSKU(ctx context.Context, companyID uuid.UUID, masterSKU string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).
		Where("company_id = ? AND master_sku = ?", companyID, masterSKU)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ---------------------------------------------------------------------------
// ProductMappingFinder implementation
// ---------------------------------------------------------------------------

// FindAll lists a company's mappings with items, newest first unless the
// filter names another order
func (r *GormProductMappingRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, error) {
	page, pageSize := shared.NormalizePage(filter.Page, filter.PageSize)

	var rows []models.ProductMappingModel
	if err := r.applyFilter(r.withItems(ctx).Scopes(CompanyScope(companyID)), filter).
		Order(OrderClause(filter.OrderBy, filter.OrderDir, MappingSortFields, "created_at")).Order("master_sku ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	mappings := make([]integration.ProductMapping, len(rows))
	for i := range rows {
		mappings[i] = *rows[i].ToDomain()
	}
	return mappings, nil
}

// Count counts mappings matching the filter
func (r *GormProductMappingRepository) Count(ctx context.Context, companyID uuid.UUID, filter integration.ProductMappingFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).Scopes(CompanyScope(companyID))
	if err := r.applyFilter(query, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormProductMappingRepository) applyFilter(query *gorm.DB, filter integration.ProductMappingFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(master_sku) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	if filter.StoreID != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM product_mapping_items i WHERE i.mapping_id = product_mappings.id AND i.store_id = ?)",
			*filter.StoreID,
		)
	}
	return query
}

// ---------------------------------------------------------------------------
// ProductMappingWriter implementation
// ---------------------------------------------------------------------------

// Create inserts a mapping and all its items atomically
func (r *GormProductMappingRepository) Create(ctx context.Context, mapping *integration.ProductMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(models.ProductMappingModelFromDomain(mapping)).Error; err != nil {
			if isUniqueViolation(err) {
				return integration.ErrMasterSKUExists
			}
			return err
		}
		if err := tx.Create(itemModels(mapping.Items)).Error; err != nil {
			if isUniqueViolation(err) {
				return integration.ErrProductAlreadyMapped
			}
			return err
		}
		return nil
	})
}

// AddItems inserts items. A product already in the same mapping is a no-op;
// a product that belongs to another mapping fails the whole batch.
func (r *GormProductMappingRepository) AddItems(ctx context.Context, items []integration.ProductMappingItem) error {
	if len(items) == 0 {
		return nil
	}
	mappingID := items[0].MappingID
	productIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).Create(itemModels(items)).Error; err != nil {
			return err
		}

		var elsewhere int64
		if err := tx.Model(&models.ProductMappingItemModel{}).
			Where("product_id IN ? AND mapping_id <> ?", productIDs, mappingID).
			Count(&elsewhere).Error; err != nil {
			return err
		}
		if elsewhere > 0 {
			return integration.ErrProductAlreadyMapped
		}
		return touchMapping(tx, mappingID, items[0].CreatedAt)
	})
}

// RemoveItems deletes the items for the given products
func (r *GormProductMappingRepository) RemoveItems(ctx context.Context, mappingID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mapping_id = ? AND product_id IN ?", mappingID, productIDs).
			Delete(&models.ProductMappingItemModel{}).Error; err != nil {
			return err
		}
		return touchMapping(tx, mappingID, time.Now())
	})
}

// Update persists master SKU and name
func (r *GormProductMappingRepository) Update(ctx context.Context, mapping *integration.ProductMapping) error {
	result := r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).
		Where("id = ? AND company_id = ?", mapping.ID, mapping.CompanyID).
		Updates(map[string]any{
			"master_sku": mapping.MasterSKU,
			"name":       mapping.Name,
			"updated_at": mapping.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return integration.ErrMasterSKUExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrMappingNotFound
	}
	return nil
}

// Delete removes a mapping and all of its items
func (r *GormProductMappingRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.ProductMappingModel{}).Select("id").Where("id = ? AND company_id = ?", id, companyID)
		if err := tx.Where("mapping_id IN (?)", owned).Delete(&models.ProductMappingItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&models.ProductMappingModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return integration.ErrMappingNotFound
		}
		return nil
	})
}

func touchMapping(tx *gorm.DB, mappingID uuid.UUID, at time.Time) error {
	return tx.Model(&models.ProductMappingModel{}).
		Where("id = ?", mappingID).
		Update("updated_at", at).Error
}

func itemModels(items []integration.ProductMappingItem) []models.ProductMappingItemModel {
	out := make([]models.ProductMappingItemModel, len(items))
	for i, item := range items {
		out[i] = models.ProductMappingItemModelFromDomain(item)
	}
	return out
}

var _ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)
