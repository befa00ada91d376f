package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/domain/integration"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func stockEvent(storeURL string, productID int64, qty int) WebhookEvent {
	return WebhookEvent{
		Event:      integration.EventStockUpdated,
		StoreURL:   storeURL,
		Data:       WebhookData{ProductID: int64Ptr(productID), StockQuantity: intPtr(qty)},
		RawPayload: []byte(`{"event":"stock.updated"}`),
	}
}

func TestHandleStockWebhook_SourceChangePropagatesOnce(t *testing.T) {
	f := newFixture()
	storeA, connA := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2)

	connB.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 201}, 7).Return(7, nil).Once()

	result, err := f.syncService().HandleStockWebhook(context.Background(), stockEvent("https://a.example.com/", 101, 7))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Synced)
	connB.AssertExpectations(t)
	connA.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, 7, f.products.get(p1.ID).StockQuantity)
	assert.Equal(t, 7, f.products.get(p2.ID).StockQuantity)

	inbound := f.logs.byDirection(integration.WebhookDirectionInbound)
	require.Len(t, inbound, 1)
	assert.Equal(t, integration.WebhookStatusSuccess, inbound[0].Status)
	require.NotNil(t, inbound[0].ProductID)
	assert.Equal(t, p1.ID, *inbound[0].ProductID)

	outbound := f.logs.byDirection(integration.WebhookDirectionOutbound)
	require.Len(t, outbound, 1)
	assert.Equal(t, storeB.ID, outbound[0].StoreID)
	assert.Equal(t, integration.WebhookStatusSuccess, outbound[0].Status)
}

func TestHandleStockWebhook_NonSourceChangeDoesNotPropagate(t *testing.T) {
	f := newFixture()
	storeA, connA := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2)

	result, err := f.syncService().HandleStockWebhook(context.Background(), stockEvent("https://b.example.com", 201, 9))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Synced)
	connA.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	connB.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 9, f.products.get(p2.ID).StockQuantity)
	assert.Equal(t, 3, f.products.get(p1.ID).StockQuantity)
	assert.Empty(t, f.logs.byDirection(integration.WebhookDirectionOutbound))
}

func TestHandleStockWebhook_CooldownSuppressesRepeat(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2)

	connB.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 201}, mock.Anything).
		Return(func(_ context.Context, _ integration.StockTarget, q int) int { return q }, nil)

	svc := f.syncService()
	ctx := context.Background()

	_, err := svc.HandleStockWebhook(ctx, stockEvent("https://a.example.com", 101, 7))
	require.NoError(t, err)
	savesAfterFirst := f.products.saveCount()

	f.clock.Advance(2 * time.Minute)
	second, err := svc.HandleStockWebhook(ctx, stockEvent("https://a.example.com", 101, 8))
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, MsgCooldownSkipped, second.Message)
	assert.Equal(t, savesAfterFirst, f.products.saveCount())
	assert.Equal(t, 7, f.products.get(p1.ID).StockQuantity)
	connB.AssertNumberOfCalls(t, "UpdateStock", 1)

	f.clock.Advance(4 * time.Minute)
	third, err := svc.HandleStockWebhook(ctx, stockEvent("https://a.example.com", 101, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, third.Synced)
	connB.AssertNumberOfCalls(t, "UpdateStock", 2)
	assert.Equal(t, 8, f.products.get(p2.ID).StockQuantity)
}

func TestHandleStockWebhook_CooldownReadFailureFailsOpen(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", false)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	f.cooldown.readErr = errors.New("redis down")

	result, err := f.syncService().HandleStockWebhook(context.Background(), stockEvent("https://a.example.com", 101, 5))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5, f.products.get(p1.ID).StockQuantity)
}

func TestHandleStockWebhook_UnknownStore(t *testing.T) {
	f := newFixture()
	f.addStore(t, "Store A", "https://a.example.com", true)

	result, err := f.syncService().HandleStockWebhook(context.Background(), stockEvent("https://nowhere.test", 101, 5))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgStoreNotFound, result.Message)
	assert.Empty(t, f.logs.logs)
}

func TestHandleStockWebhook_UnknownProductIsLoggedFailed(t *testing.T) {
	f := newFixture()
	f.addStore(t, "Store A", "https://a.example.com", true)

	result, err := f.syncService().HandleStockWebhook(context.Background(), stockEvent("https://a.example.com", 999, 5))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgProductNotFound, result.Message)

	require.Len(t, f.logs.logs, 1)
	assert.Equal(t, integration.WebhookStatusFailed, f.logs.logs[0].Status)
	assert.Equal(t, MsgProductNotFound, f.logs.logs[0].Message)
}

func TestHandleStockWebhook_InvalidPayload(t *testing.T) {
	f := newFixture()
	f.addStore(t, "Store A", "https://a.example.com", true)

	event := WebhookEvent{StoreURL: "https://a.example.com", Data: WebhookData{StockQuantity: intPtr(3)}}
	result, err := f.syncService().HandleStockWebhook(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgInvalidPayload, result.Message)
	require.Len(t, f.logs.logs, 1)
	assert.Equal(t, integration.EventStockUpdated, f.logs.logs[0].EventType)
}

func TestHandleStockWebhook_SiblingFailuresAreIsolated(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	storeC, connC := f.addStore(t, "Store C", "https://c.example.com", true)
	storeD, _ := f.addStore(t, "Store D", "https://d.example.com", false)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	p3 := f.addProduct(t, storeC, 301, "Widget", "ABC-100", 3)
	p4 := f.addProduct(t, storeD, 401, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2, p3, p4)

	connB.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 201}, 2).
		Return(0, integration.ErrStoreUnavailable).Once()
	connC.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 301}, 2).Return(2, nil).Once()

	result, err := f.syncService().HandleStockWebhook(context.Background(), stockEvent("https://a.example.com", 101, 2))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Synced)
	connB.AssertExpectations(t)
	connC.AssertExpectations(t)
	assert.Equal(t, 3, f.products.get(p2.ID).StockQuantity)
	assert.Equal(t, 2, f.products.get(p3.ID).StockQuantity)
	assert.Equal(t, 3, f.products.get(p4.ID).StockQuantity)

	outbound := f.logs.byDirection(integration.WebhookDirectionOutbound)
	require.Len(t, outbound, 2)
	statuses := map[uuid.UUID]integration.WebhookStatus{}
	for _, l := range outbound {
		statuses[l.StoreID] = l.Status
	}
	assert.Equal(t, integration.WebhookStatusFailed, statuses[storeB.ID])
	assert.Equal(t, integration.WebhookStatusSuccess, statuses[storeC.ID])
}

func TestHandleStockWebhook_VariationMatchedBySKU(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addVariableProduct(t, storeA, 100, "Shirt", map[int64]string{111: "SHIRT-RED", 112: "SHIRT-BLUE"})
	p2 := f.addVariableProduct(t, storeB, 200, "Shirt", map[int64]string{211: "shirt-red", 212: "shirt-green"})
	f.addMapping(t, "SHIRT", p1, p2)

	connB.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 200, VariationID: 211}, 4).Return(4, nil).Once()

	event := WebhookEvent{
		StoreURL: "https://a.example.com",
		Data:     WebhookData{VariationID: int64Ptr(111), StockQuantity: intPtr(4)},
	}
	result, err := f.syncService().HandleStockWebhook(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Synced)
	connB.AssertExpectations(t)
	source, sibling := f.products.get(p1.ID), f.products.get(p2.ID)
	assert.Equal(t, 4, source.VariationByRemoteID(111).StockQuantity)
	assert.Equal(t, 4, sibling.VariationByRemoteID(211).StockQuantity)
	assert.Equal(t, 0, sibling.VariationByRemoteID(212).StockQuantity)
}

func TestHandleStockWebhook_VariationWithoutSiblingSKUIsSkipped(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addVariableProduct(t, storeA, 100, "Shirt", map[int64]string{111: "SHIRT-RED"})
	p2 := f.addVariableProduct(t, storeB, 200, "Shirt", map[int64]string{211: "SHIRT-GREEN"})
	f.addMapping(t, "SHIRT", p1, p2)

	event := WebhookEvent{
		StoreURL: "https://a.example.com",
		Data:     WebhookData{VariationID: int64Ptr(111), StockQuantity: intPtr(4)},
	}
	result, err := f.syncService().HandleStockWebhook(context.Background(), event)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Synced)
	connB.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStockWebhook_PurchasePriceOnly(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2)

	price := decimal.RequireFromString("12.50")
	event := WebhookEvent{
		Event:    integration.EventPurchasePriceUpdated,
		StoreURL: "https://a.example.com",
		Data:     WebhookData{ProductID: int64Ptr(101), PurchasePrice: &price},
	}
	result, err := f.syncService().HandleStockWebhook(context.Background(), event)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Synced)
	connB.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, f.products.get(p1.ID).PurchasePrice.Decimal.Equal(price))
}

func TestHandleStockWebhook_PurchasePriceDoesNotStartCooldown(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2)

	connB.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 201}, 7).Return(7, nil).Once()

	svc := f.syncService()
	ctx := context.Background()

	price := decimal.RequireFromString("12.50")
	priced, err := svc.HandleStockWebhook(ctx, WebhookEvent{
		Event:    integration.EventPurchasePriceUpdated,
		StoreURL: "https://a.example.com",
		Data:     WebhookData{ProductID: int64Ptr(101), PurchasePrice: &price},
	})
	require.NoError(t, err)
	require.True(t, priced.Success)

	f.clock.Advance(30 * time.Second)
	stocked, err := svc.HandleStockWebhook(ctx, stockEvent("https://a.example.com", 101, 7))
	require.NoError(t, err)

	assert.True(t, stocked.Success)
	assert.NotEqual(t, MsgCooldownSkipped, stocked.Message)
	assert.Equal(t, 1, stocked.Synced)
	connB.AssertExpectations(t)
	assert.Equal(t, 7, f.products.get(p1.ID).StockQuantity)
	assert.Equal(t, 7, f.products.get(p2.ID).StockQuantity)

	// a price change right after a stock change is still applied
	f.clock.Advance(30 * time.Second)
	newer := decimal.RequireFromString("13.00")
	repriced, err := svc.HandleStockWebhook(ctx, WebhookEvent{
		Event:    integration.EventPurchasePriceUpdated,
		StoreURL: "https://a.example.com",
		Data:     WebhookData{ProductID: int64Ptr(101), PurchasePrice: &newer},
	})
	require.NoError(t, err)
	assert.True(t, repriced.Success)
	assert.NotEqual(t, MsgCooldownSkipped, repriced.Message)
	assert.True(t, f.products.get(p1.ID).PurchasePrice.Decimal.Equal(newer))
}

func TestUpdateStockFromDashboard_PushesToOwningStoreOnly(t *testing.T) {
	f := newFixture()
	storeA, connA := f.addStore(t, "Store A", "https://a.example.com", true)
	storeB, connB := f.addStore(t, "Store B", "https://b.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)
	p2 := f.addProduct(t, storeB, 201, "Widget", "ABC-100", 3)
	f.addMapping(t, "ABC-100", p1, p2)

	connA.On("UpdateStock", mock.Anything, integration.StockTarget{ProductID: 101}, 11).Return(11, nil).Once()

	result, err := f.syncService().UpdateStockFromDashboard(context.Background(), f.companyID, UpdateStockRequest{
		ProductID: p1.ID,
		Quantity:  11,
	})
	require.NoError(t, err)

	assert.True(t, result.LocalUpdated)
	assert.True(t, result.RemoteSynced)
	connA.AssertExpectations(t)
	connB.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 11, f.products.get(p1.ID).StockQuantity)
	assert.Equal(t, 3, f.products.get(p2.ID).StockQuantity)
	assert.Empty(t, f.cooldown.entries)
}

func TestUpdateStockFromDashboard_SkipRemote(t *testing.T) {
	f := newFixture()
	storeA, connA := f.addStore(t, "Store A", "https://a.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)

	result, err := f.syncService().UpdateStockFromDashboard(context.Background(), f.companyID, UpdateStockRequest{
		ProductID:  p1.ID,
		Quantity:   0,
		SkipRemote: true,
	})
	require.NoError(t, err)

	assert.True(t, result.LocalUpdated)
	assert.False(t, result.RemoteSynced)
	connA.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, "outofstock", string(f.products.get(p1.ID).StockStatus))
}

func TestUpdateStockFromDashboard_RemoteFailureKeepsLocalChange(t *testing.T) {
	f := newFixture()
	storeA, connA := f.addStore(t, "Store A", "https://a.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)

	connA.On("UpdateStock", mock.Anything, mock.Anything, 6).Return(0, integration.ErrStoreAuthFailed).Once()

	result, err := f.syncService().UpdateStockFromDashboard(context.Background(), f.companyID, UpdateStockRequest{
		ProductID: p1.ID,
		Quantity:  6,
	})
	require.NoError(t, err)

	assert.True(t, result.LocalUpdated)
	assert.False(t, result.RemoteSynced)
	assert.Contains(t, result.Message, "authentication")
	assert.Equal(t, 6, f.products.get(p1.ID).StockQuantity)
}

func TestUpdateStockFromDashboard_OtherCompany(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", true)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)

	_, err := f.syncService().UpdateStockFromDashboard(context.Background(), uuid.New(), UpdateStockRequest{
		ProductID: p1.ID,
		Quantity:  6,
	})
	require.Error(t, err)
	assert.Equal(t, 3, f.products.get(p1.ID).StockQuantity)
}

func TestUpdatePurchasePriceFromDashboard_Variation(t *testing.T) {
	f := newFixture()
	storeA, connA := f.addStore(t, "Store A", "https://a.example.com", true)
	p1 := f.addVariableProduct(t, storeA, 100, "Shirt", map[int64]string{111: "SHIRT-RED"})
	variationID := p1.VariationByRemoteID(111).ID
	price := decimal.RequireFromString("4.20")

	connA.On("UpdatePurchasePrice", mock.Anything, integration.StockTarget{ProductID: 100, VariationID: 111}, mock.Anything).
		Return(price, nil).Once()

	result, err := f.syncService().UpdatePurchasePriceFromDashboard(context.Background(), f.companyID, UpdatePurchasePriceRequest{
		ProductID:   p1.ID,
		VariationID: &variationID,
		Price:       price,
	})
	require.NoError(t, err)

	assert.True(t, result.RemoteSynced)
	connA.AssertExpectations(t)
	stored := f.products.get(p1.ID)
	got := stored.VariationByRemoteID(111)
	assert.True(t, got.PurchasePrice.Valid)
	assert.True(t, got.PurchasePrice.Decimal.Equal(price))
}

func TestUpdateRemoteStock_MissingCredentials(t *testing.T) {
	f := newFixture()
	storeA, _ := f.addStore(t, "Store A", "https://a.example.com", false)
	p1 := f.addProduct(t, storeA, 101, "Widget", "ABC-100", 3)

	result := f.syncService().UpdateRemoteStock(context.Background(), storeA, p1, nil, 5)
	assert.False(t, result.Success)

	outbound := f.logs.byDirection(integration.WebhookDirectionOutbound)
	require.Len(t, outbound, 1)
	assert.Equal(t, integration.WebhookStatusFailed, outbound[0].Status)
	assert.Equal(t, integration.EventStockPush, outbound[0].EventType)
}
