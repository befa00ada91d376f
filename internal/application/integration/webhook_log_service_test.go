package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

func TestWebhookLogService_ListAndStats(t *testing.T) {
	f := newFixture()
	store, _ := f.addStore(t, "Shop", "https://shop.example.com", true)
	ctx := context.Background()

	old := integration.NewWebhookLog(store.ID, integration.EventStockUpdated, integration.WebhookDirectionInbound, nil, f.clock.Now().Add(-48*time.Hour))
	require.NoError(t, old.MarkSuccess("ok", f.clock.Now()))
	in := integration.NewWebhookLog(store.ID, integration.EventStockUpdated, integration.WebhookDirectionInbound, nil, f.clock.Now().Add(-time.Hour))
	require.NoError(t, in.MarkSuccess("ok", f.clock.Now()))
	out := integration.NewWebhookLog(store.ID, integration.EventStockPush, integration.WebhookDirectionOutbound, nil, f.clock.Now().Add(-time.Minute))
	require.NoError(t, out.MarkFailed("boom", f.clock.Now()))
	for _, l := range []*integration.WebhookLog{old, in, out} {
		require.NoError(t, f.logs.Create(ctx, l))
	}

	svc := NewWebhookLogService(f.logs, f.stores, f.clock)

	logs, total, err := svc.List(ctx, f.companyID, store.ID, ListWebhookLogsRequest{Direction: "outbound"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].Message)
	assert.Equal(t, "{}", logs[0].Payload)

	stats, err := svc.Stats(ctx, f.companyID, store.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Success)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Inbound)
	assert.InDelta(t, 50.0, stats.SuccessRate, 0.001)
	require.NotNil(t, stats.LastReceivedAt)
	assert.Equal(t, f.clock.Now().Add(-time.Hour), *stats.LastReceivedAt)
}

func TestWebhookLogService_StoreOfOtherCompany(t *testing.T) {
	f := newFixture()
	store, _ := f.addStore(t, "Shop", "https://shop.example.com", true)
	svc := NewWebhookLogService(f.logs, f.stores, f.clock)

	_, _, err := svc.List(context.Background(), uuid.New(), store.ID, ListWebhookLogsRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Stats(context.Background(), uuid.New(), store.ID, time.Hour)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
