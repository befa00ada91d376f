package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

// GormStoreRepository implements catalog.StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by ID regardless of company
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForCompany finds a store by ID within a company
func (r *GormStoreRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*catalog.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany lists a company's stores ordered by name
func (r *GormStoreRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]catalog.Store, error) {
	var rows []models.StoreModel
	if err := r.db.WithContext(ctx).
		Scopes(CompanyScope(companyID)).
		Order("name ASC").Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStores(rows), nil
}

// FindByHost lists stores whose host equals, contains, or is contained in
// host. The caller ranks candidates with catalog.ResolveStore.
func (r *GormStoreRepository) FindByHost(ctx context.Context, host string) ([]catalog.Store, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return []catalog.Store{}, nil
	}
	var rows []models.StoreModel
	if err := r.db.WithContext(ctx).
		Where("host = ? OR host LIKE ? OR ? LIKE '%' || host || '%'", host, likePattern(host), host).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStores(rows), nil
}

// FindAllWithCommerceCredentials lists stores that can be catalog-synced
func (r *GormStoreRepository) FindAllWithCommerceCredentials(ctx context.Context) ([]catalog.Store, error) {
	var rows []models.StoreModel
	if err := r.db.WithContext(ctx).
		Where("consumer_key <> '' AND consumer_secret <> ''").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStores(rows), nil
}

// Save creates or updates a store. A second store with the same URL in the
// same company is rejected with shared.ErrAlreadyExists.
func (r *GormStoreRepository) Save(ctx context.Context, store *catalog.Store) error {
	model := models.StoreModelFromDomain(store)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists.WithDetails(store.URL)
		}
		return err
	}
	return nil
}

// UpdateLastSyncAt stamps the store's last successful synchronization
func (r *GormStoreRepository) UpdateLastSyncAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StoreModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_sync_at": at, "updated_at": at}).Error
}

// DeleteForCompany deletes a store with its products, variations and mapping
// items. Webhook logs are kept. Mappings that no longer satisfy the mapping
// invariants are removed as well.
func (r *GormStoreRepository) DeleteForCompany(ctx context.Context, companyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store models.StoreModel
		if err := tx.First(&store, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var mappingIDs []uuid.UUID
		if err := tx.Model(&models.ProductMappingItemModel{}).
			Distinct("mapping_id").
			Where("store_id = ?", id).
			Pluck("mapping_id", &mappingIDs).Error; err != nil {
			return err
		}

		productIDs := tx.Model(&models.ProductModel{}).Select("id").Where("store_id = ?", id)
		steps := []struct {
			model any
			where string
			arg   any
		}{
			{&models.ProductMappingItemModel{}, "store_id = ?", id},
			{&models.ProductVariationModel{}, "product_id IN (?)", productIDs},
			{&models.ProductModel{}, "store_id = ?", id},
			{&models.StoreModel{}, "id = ?", id},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, step.arg).Delete(step.model).Error; err != nil {
				return err
			}
		}

		return deleteBrokenMappings(tx, mappingIDs)
	})
}

// deleteBrokenMappings removes mappings among ids that lost their source item
// or now span fewer than two stores. The source is never re-elected.
func deleteBrokenMappings(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var broken []uuid.UUID
	if err := tx.Model(&models.ProductMappingModel{}).
		Where("id IN ?", ids).
		Where("((SELECT COUNT(DISTINCT i.store_id) FROM product_mapping_items i WHERE i.mapping_id = product_mappings.id) < 2"+
			" OR NOT EXISTS (SELECT 1 FROM product_mapping_items i WHERE i.mapping_id = product_mappings.id AND i.is_source = ?))", true).
		Pluck("id", &broken).Error; err != nil {
		return err
	}
	if len(broken) == 0 {
		return nil
	}
	if err := tx.Where("mapping_id IN ?", broken).Delete(&models.ProductMappingItemModel{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", broken).Delete(&models.ProductMappingModel{}).Error
}

func toStores(rows []models.StoreModel) []catalog.Store {
	stores := make([]catalog.Store, len(rows))
	for i := range rows {
		stores[i] = *rows[i].ToDomain()
	}
	return stores
}

var _ catalog.StoreRepository = (*GormStoreRepository)(nil)
