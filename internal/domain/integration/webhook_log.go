package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WebhookDirection tells whether a sync attempt came in or went out
type WebhookDirection string

const (
	WebhookDirectionInbound  WebhookDirection = "inbound"
	WebhookDirectionOutbound WebhookDirection = "outbound"
)

// IsValid returns true if the direction is known
func (d WebhookDirection) IsValid() bool {
	return d == WebhookDirectionInbound || d == WebhookDirectionOutbound
}

// WebhookStatus is the lifecycle state of a sync attempt
type WebhookStatus string

const (
	WebhookStatusPending WebhookStatus = "pending"
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// IsValid returns true if the status is known
func (s WebhookStatus) IsValid() bool {
	switch s {
	case WebhookStatusPending, WebhookStatusSuccess, WebhookStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true for success and failed
func (s WebhookStatus) IsTerminal() bool {
	return s == WebhookStatusSuccess || s == WebhookStatusFailed
}

// Common event types recorded in the log
const (
	EventStockUpdated         = "stock.updated"
	EventPurchasePriceUpdated = "purchase_price.updated"
	EventStockPush            = "stock.push"
	EventPurchasePricePush    = "purchase_price.push"
)

// WebhookLog is an append-only audit row for one synchronization attempt.
// After insert only the status transition is written.
type WebhookLog struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	EventType string
	Direction WebhookDirection
	// Payload is the raw JSON exchanged with the remote store
	Payload []byte
	Status  WebhookStatus
	Message string
	// ProductID is the local product the event resolved to, if any
	ProductID   *uuid.UUID
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewWebhookLog creates a pending log row
func NewWebhookLog(storeID uuid.UUID, eventType string, direction WebhookDirection, payload []byte, at time.Time) *WebhookLog {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return &WebhookLog{
		ID:        uuid.New(),
		StoreID:   storeID,
		EventType: eventType,
		Direction: direction,
		Payload:   payload,
		Status:    WebhookStatusPending,
		CreatedAt: at,
	}
}

// ResolveProduct records the local product the event refers to
func (l *WebhookLog) ResolveProduct(productID uuid.UUID) {
	l.ProductID = &productID
}

// MarkSuccess moves a pending row to success
func (l *WebhookLog) MarkSuccess(message string, at time.Time) error {
	return l.finish(WebhookStatusSuccess, message, at)
}

// MarkFailed moves a pending row to failed
func (l *WebhookLog) MarkFailed(message string, at time.Time) error {
	return l.finish(WebhookStatusFailed, message, at)
}

func (l *WebhookLog) finish(status WebhookStatus, message string, at time.Time) error {
	if l.Status.IsTerminal() {
		return ErrWebhookLogFinalized
	}
	if len(message) > 1000 {
		message = message[:1000]
	}
	l.Status = status
	l.Message = message
	l.ProcessedAt = &at
	return nil
}

// WebhookStats summarizes a store's sync attempts
type WebhookStats struct {
	Total          int64
	Pending        int64
	Success        int64
	Failed         int64
	Inbound        int64
	Outbound       int64
	LastReceivedAt *time.Time
}

// SuccessRate returns the share of terminal rows that succeeded, in percent
func (s WebhookStats) SuccessRate() float64 {
	done := s.Success + s.Failed
	if done == 0 {
		return 0
	}
	return float64(s.Success) * 100 / float64(done)
}

// WebhookLogFilter narrows log listings
type WebhookLogFilter struct {
	Direction *WebhookDirection
	Status    *WebhookStatus
	EventType string
	Page      int
	PageSize  int
}

// WebhookLogRepository persists webhook logs. Rows are never deleted here.
type WebhookLogRepository interface {
	// Create inserts a new row
	Create(ctx context.Context, log *WebhookLog) error

	// UpdateStatus writes status, message, product and processed-at
	UpdateStatus(ctx context.Context, log *WebhookLog) error

	// FindByStore lists a store's rows newest first and the total count
	FindByStore(ctx context.Context, storeID uuid.UUID, filter WebhookLogFilter) ([]WebhookLog, int64, error)

	// Stats aggregates a store's rows created at or after since
	Stats(ctx context.Context, storeID uuid.UUID, since time.Time) (*WebhookStats, error)
}
