package integration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// DefaultStatsWindow is used when no stats window is requested
const DefaultStatsWindow = 24 * time.Hour

// WebhookLogService exposes the sync audit trail of a store
type WebhookLogService struct {
	logRepo   integration.WebhookLogRepository
	storeRepo catalog.StoreRepository
	clock     shared.Clock
}

// NewWebhookLogService creates a new WebhookLogService
func NewWebhookLogService(logRepo integration.WebhookLogRepository, storeRepo catalog.StoreRepository, clock shared.Clock) *WebhookLogService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &WebhookLogService{logRepo: logRepo, storeRepo: storeRepo, clock: clock}
}

// List returns a page of a store's logs, newest first
func (s *WebhookLogService) List(ctx context.Context, companyID, storeID uuid.UUID, req ListWebhookLogsRequest) ([]WebhookLogResponse, int64, error) {
	if _, err := s.storeRepo.FindByIDForCompany(ctx, companyID, storeID); err != nil {
		return nil, 0, err
	}

	page, pageSize := shared.NormalizePage(req.Page, req.PageSize)
	filter := integration.WebhookLogFilter{
		EventType: req.EventType,
		Page:      page,
		PageSize:  pageSize,
	}
	if req.Direction != "" {
		d := integration.WebhookDirection(req.Direction)
		if !d.IsValid() {
			return nil, 0, shared.ErrInvalidInput
		}
		filter.Direction = &d
	}
	if req.Status != "" {
		st := integration.WebhookStatus(req.Status)
		if !st.IsValid() {
			return nil, 0, shared.ErrInvalidInput
		}
		filter.Status = &st
	}

	logs, total, err := s.logRepo.FindByStore(ctx, storeID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]WebhookLogResponse, len(logs))
	for i := range logs {
		out[i] = toWebhookLogResponse(&logs[i])
	}
	return out, total, nil
}

// Stats summarizes a store's logs over the trailing window
func (s *WebhookLogService) Stats(ctx context.Context, companyID, storeID uuid.UUID, window time.Duration) (*WebhookStatsResponse, error) {
	if _, err := s.storeRepo.FindByIDForCompany(ctx, companyID, storeID); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultStatsWindow
	}
	since := s.clock.Now().Add(-window)

	stats, err := s.logRepo.Stats(ctx, storeID, since)
	if err != nil {
		return nil, err
	}
	return &WebhookStatsResponse{
		Since:          since,
		Total:          stats.Total,
		Pending:        stats.Pending,
		Success:        stats.Success,
		Failed:         stats.Failed,
		Inbound:        stats.Inbound,
		Outbound:       stats.Outbound,
		SuccessRate:    stats.SuccessRate(),
		LastReceivedAt: stats.LastReceivedAt,
	}, nil
}

func toWebhookLogResponse(l *integration.WebhookLog) WebhookLogResponse {
	return WebhookLogResponse{
		ID:          l.ID,
		EventType:   l.EventType,
		Direction:   l.Direction,
		Status:      l.Status,
		Message:     l.Message,
		ProductID:   l.ProductID,
		Payload:     string(l.Payload),
		CreatedAt:   l.CreatedAt,
		ProcessedAt: l.ProcessedAt,
	}
}
