package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

// GormDismissedSuggestionRepository stores dismissed suggestion keys
type GormDismissedSuggestionRepository struct {
	db *gorm.DB
}

// NewGormDismissedSuggestionRepository creates a new repository
func NewGormDismissedSuggestionRepository(db *gorm.DB) *GormDismissedSuggestionRepository {
	return &GormDismissedSuggestionRepository{db: db}
}

// Keys returns the set of dismissed keys for a company
func (r *GormDismissedSuggestionRepository) Keys(ctx context.Context, companyID uuid.UUID) (map[string]struct{}, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&models.DismissedSuggestionModel{}).
		Scopes(CompanyScope(companyID)).
		Pluck("group_key", &keys).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

// Dismiss inserts the key; an existing key is a no-op
func (r *GormDismissedSuggestionRepository) Dismiss(ctx context.Context, companyID uuid.UUID, key string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "group_key"}},
		DoNothing: true,
	}).Create(&models.DismissedSuggestionModel{
		ID:        uuid.New(),
		CompanyID: companyID,
		GroupKey:  key,
		CreatedAt: time.Now(),
	}).Error
}

// Restore deletes the key; a missing key is a no-op
func (r *GormDismissedSuggestionRepository) Restore(ctx context.Context, companyID uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Where("company_id = ? AND group_key = ?", companyID, key).
		Delete(&models.DismissedSuggestionModel{}).Error
}

var _ integration.DismissedSuggestionRepository = (*GormDismissedSuggestionRepository)(nil)
