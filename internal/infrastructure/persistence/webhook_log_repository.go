package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

// GormWebhookLogRepository implements integration.WebhookLogRepository.
// Rows are append-only: after insert only the status columns change.
type GormWebhookLogRepository struct {
	db *gorm.DB
}

// NewGormWebhookLogRepository creates a new GormWebhookLogRepository
func NewGormWebhookLogRepository(db *gorm.DB) *GormWebhookLogRepository {
	return &GormWebhookLogRepository{db: db}
}

// Create inserts a new row
func (r *GormWebhookLogRepository) Create(ctx context.Context, log *integration.WebhookLog) error {
	return r.db.WithContext(ctx).Create(models.WebhookLogModelFromDomain(log)).Error
}

// UpdateStatus writes status, message, product and processed-at
func (r *GormWebhookLogRepository) UpdateStatus(ctx context.Context, log *integration.WebhookLog) error {
	result := r.db.WithContext(ctx).Model(&models.WebhookLogModel{}).
		Where("id = ?", log.ID).
		Updates(map[string]any{
			"status":       string(log.Status),
			"message":      log.Message,
			"product_id":   log.ProductID,
			"processed_at": log.ProcessedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByStore lists a store's rows newest first and the total count
func (r *GormWebhookLogRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter integration.WebhookLogFilter) ([]integration.WebhookLog, int64, error) {
	page, pageSize := shared.NormalizePage(filter.Page, filter.PageSize)

	query := r.db.WithContext(ctx).Model(&models.WebhookLogModel{}).Where("store_id = ?", storeID)
	if filter.Direction != nil {
		query = query.Where("direction = ?", string(*filter.Direction))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WebhookLogModel
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]integration.WebhookLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, total, nil
}

// Stats aggregates a store's rows created at or after since
func (r *GormWebhookLogRepository) Stats(ctx context.Context, storeID uuid.UUID, since time.Time) (*integration.WebhookStats, error) {
	var counts []struct {
		Status    string
		Direction string
		N         int64
	}
	if err := r.db.WithContext(ctx).Model(&models.WebhookLogModel{}).
		Select("status, direction, COUNT(*) AS n").
		Where("store_id = ? AND created_at >= ?", storeID, since).
		Group("status, direction").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	stats := &integration.WebhookStats{}
	for _, c := range counts {
		stats.Total += c.N
		switch integration.WebhookStatus(c.Status) {
		case integration.WebhookStatusPending:
			stats.Pending += c.N
		case integration.WebhookStatusSuccess:
			stats.Success += c.N
		case integration.WebhookStatusFailed:
			stats.Failed += c.N
		}
		switch integration.WebhookDirection(c.Direction) {
		case integration.WebhookDirectionInbound:
			stats.Inbound += c.N
		case integration.WebhookDirectionOutbound:
			stats.Outbound += c.N
		}
	}

	var last []models.WebhookLogModel
	if err := r.db.WithContext(ctx).
		Select("created_at").
		Where("store_id = ? AND direction = ?", storeID, string(integration.WebhookDirectionInbound)).
		Order("created_at DESC").
		Limit(1).
		Find(&last).Error; err != nil {
		return nil, err
	}
	if len(last) == 1 {
		at := last[0].CreatedAt
		stats.LastReceivedAt = &at
	}
	return stats, nil
}

var _ integration.WebhookLogRepository = (*GormWebhookLogRepository)(nil)
