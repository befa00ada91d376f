package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/infrastructure/scheduler"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
	"github.com/stocksync/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// newCompanyRouter mounts handlers behind the same company resolution the API uses
func newCompanyRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequireCompany())
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, companyID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if companyID != uuid.Nil {
		req.Header.Set(middleware.CompanyIDHeader, companyID.String())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeResponse decodes the envelope and, when out is non-nil, its data
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

// ---------------------------------------------------------------------------

type mockStockUpdater struct{ mock.Mock }

func (m *mockStockUpdater) UpdateStockFromDashboard(ctx context.Context, companyID uuid.UUID, req integrationapp.UpdateStockRequest) (*integrationapp.DashboardUpdateResult, error) {
	args := m.Called(ctx, companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.DashboardUpdateResult), args.Error(1)
}

func (m *mockStockUpdater) UpdatePurchasePriceFromDashboard(ctx context.Context, companyID uuid.UUID, req integrationapp.UpdatePurchasePriceRequest) (*integrationapp.DashboardUpdateResult, error) {
	args := m.Called(ctx, companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.DashboardUpdateResult), args.Error(1)
}

// ---------------------------------------------------------------------------

type mockMappingManager struct{ mock.Mock }

func (m *mockMappingManager) Create(ctx context.Context, companyID uuid.UUID, req integrationapp.CreateMappingRequest) (*integrationapp.MappingResponse, error) {
	args := m.Called(ctx, companyID, req)
	return mappingResult(args)
}

func (m *mockMappingManager) AddProducts(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*integrationapp.MappingResponse, error) {
	args := m.Called(ctx, companyID, mappingID, productIDs)
	return mappingResult(args)
}

func (m *mockMappingManager) RemoveProducts(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*integrationapp.MappingResponse, error) {
	args := m.Called(ctx, companyID, mappingID, productIDs)
	return mappingResult(args)
}

func (m *mockMappingManager) Get(ctx context.Context, companyID, id uuid.UUID) (*integrationapp.MappingResponse, error) {
	args := m.Called(ctx, companyID, id)
	return mappingResult(args)
}

func (m *mockMappingManager) List(ctx context.Context, companyID uuid.UUID, req integrationapp.ListMappingsRequest) ([]integrationapp.MappingResponse, int64, error) {
	args := m.Called(ctx, companyID, req)
	return args.Get(0).([]integrationapp.MappingResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockMappingManager) Update(ctx context.Context, companyID, id uuid.UUID, req integrationapp.UpdateMappingRequest) (*integrationapp.MappingResponse, error) {
	args := m.Called(ctx, companyID, id, req)
	return mappingResult(args)
}

func (m *mockMappingManager) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

func (m *mockMappingManager) ConsolidatedInventory(ctx context.Context, companyID uuid.UUID) ([]integrationapp.InventoryLine, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]integrationapp.InventoryLine), args.Error(1)
}

func mappingResult(args mock.Arguments) (*integrationapp.MappingResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.MappingResponse), args.Error(1)
}

type mockMatcher struct{ mock.Mock }

func (m *mockMatcher) GetSuggestions(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) ([]integrationapp.SuggestionResponse, error) {
	args := m.Called(ctx, companyID, storeID)
	return args.Get(0).([]integrationapp.SuggestionResponse), args.Error(1)
}

func (m *mockMatcher) Dismiss(ctx context.Context, companyID uuid.UUID, key string) error {
	return m.Called(ctx, companyID, key).Error(0)
}

func (m *mockMatcher) Restore(ctx context.Context, companyID uuid.UUID, key string) error {
	return m.Called(ctx, companyID, key).Error(0)
}

func (m *mockMatcher) AutoMatch(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) (*integrationapp.AutoMatchResult, error) {
	args := m.Called(ctx, companyID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.AutoMatchResult), args.Error(1)
}

func (m *mockMatcher) SearchCandidates(ctx context.Context, companyID uuid.UUID, req integrationapp.SearchCandidatesRequest) ([]integrationapp.CandidateResponse, error) {
	args := m.Called(ctx, companyID, req)
	return args.Get(0).([]integrationapp.CandidateResponse), args.Error(1)
}

// ---------------------------------------------------------------------------

type mockStoreManager struct{ mock.Mock }

func (m *mockStoreManager) Register(ctx context.Context, companyID uuid.UUID, req integrationapp.RegisterStoreRequest) (*integrationapp.StoreResponse, error) {
	args := m.Called(ctx, companyID, req)
	return storeResult(args)
}

func (m *mockStoreManager) List(ctx context.Context, companyID uuid.UUID) ([]integrationapp.StoreResponse, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]integrationapp.StoreResponse), args.Error(1)
}

func (m *mockStoreManager) Get(ctx context.Context, companyID, id uuid.UUID) (*integrationapp.StoreResponse, error) {
	args := m.Called(ctx, companyID, id)
	return storeResult(args)
}

func (m *mockStoreManager) RotateCredentials(ctx context.Context, companyID, id uuid.UUID, req integrationapp.RotateCredentialsRequest) (*integrationapp.StoreResponse, error) {
	args := m.Called(ctx, companyID, id, req)
	return storeResult(args)
}

func (m *mockStoreManager) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

func storeResult(args mock.Arguments) (*integrationapp.StoreResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.StoreResponse), args.Error(1)
}

type mockSyncRunner struct{ mock.Mock }

func (m *mockSyncRunner) SyncStoreForCompany(ctx context.Context, companyID, storeID uuid.UUID) (*integrationapp.CatalogSyncResult, error) {
	args := m.Called(ctx, companyID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.CatalogSyncResult), args.Error(1)
}

type mockSyncQueue struct{ mock.Mock }

func (m *mockSyncQueue) Submit(storeID uuid.UUID, trigger scheduler.Trigger) (*scheduler.Job, error) {
	args := m.Called(storeID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.Job), args.Error(1)
}

func (m *mockSyncQueue) Jobs(storeID *uuid.UUID) []*scheduler.Job {
	return m.Called(storeID).Get(0).([]*scheduler.Job)
}

// ---------------------------------------------------------------------------

type mockLogReader struct{ mock.Mock }

func (m *mockLogReader) List(ctx context.Context, companyID, storeID uuid.UUID, req integrationapp.ListWebhookLogsRequest) ([]integrationapp.WebhookLogResponse, int64, error) {
	args := m.Called(ctx, companyID, storeID, req)
	return args.Get(0).([]integrationapp.WebhookLogResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockLogReader) Stats(ctx context.Context, companyID, storeID uuid.UUID, window time.Duration) (*integrationapp.WebhookStatsResponse, error) {
	args := m.Called(ctx, companyID, storeID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.WebhookStatsResponse), args.Error(1)
}

type mockWebhookProcessor struct{ mock.Mock }

func (m *mockWebhookProcessor) HandleStockWebhook(ctx context.Context, event integrationapp.WebhookEvent) (*integrationapp.WebhookResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.WebhookResult), args.Error(1)
}
