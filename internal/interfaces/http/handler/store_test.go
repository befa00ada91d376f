package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/scheduler"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

func newStoreRouter(stores StoreManager, syncer CatalogSyncRunner, queue CatalogSyncQueue) http.Handler {
	h := NewStoreHandler(stores, syncer, queue)
	router := newCompanyRouter()
	g := router.Group("/stores")
	g.POST("", h.Register)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/credentials", h.RotateCredentials)
	g.POST("/:id/sync", h.Sync)
	g.GET("/:id/sync-jobs", h.SyncJobs)
	return router
}

func TestStoreHandler_Register(t *testing.T) {
	stores := new(mockStoreManager)
	companyID := uuid.New()
	stores.On("Register", mock.Anything, companyID, integrationapp.RegisterStoreRequest{
		Name:          "Shop A",
		URL:           "https://a.example.com",
		SyncAPIKey:    "key",
		SyncAPISecret: "secret",
	}).Return(&integrationapp.StoreResponse{ID: uuid.New(), Name: "Shop A", SyncEnabled: true}, nil)

	rec := doJSON(t, newStoreRouter(stores, nil, nil), http.MethodPost, "/stores", companyID, map[string]any{
		"name":            "Shop A",
		"url":             "https://a.example.com",
		"sync_api_key":    "key",
		"sync_api_secret": "secret",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	stores.AssertExpectations(t)
}

func TestStoreHandler_RegisterValidation(t *testing.T) {
	stores := new(mockStoreManager)

	rec := doJSON(t, newStoreRouter(stores, nil, nil), http.MethodPost, "/stores", uuid.New(), map[string]any{
		"name": "Shop A",
		"url":  "not a url",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	require.NotNil(t, resp.Error)
	require.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "url", resp.Error.Details[0].Field)
}

func TestStoreHandler_RegisterIncompleteCredentials(t *testing.T) {
	stores := new(mockStoreManager)
	stores.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(nil, integration.ErrIncompleteCredentials)

	rec := doJSON(t, newStoreRouter(stores, nil, nil), http.MethodPost, "/stores", uuid.New(), map[string]any{
		"name":         "Shop A",
		"url":          "https://a.example.com",
		"sync_api_key": "key",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreHandler_ListGetDelete(t *testing.T) {
	stores := new(mockStoreManager)
	router := newStoreRouter(stores, nil, nil)
	companyID, id := uuid.New(), uuid.New()

	stores.On("List", mock.Anything, companyID).Return([]integrationapp.StoreResponse{{ID: id}}, nil)
	stores.On("Get", mock.Anything, companyID, id).Return(&integrationapp.StoreResponse{ID: id}, nil)
	stores.On("Delete", mock.Anything, companyID, id).Return(nil)

	rec := doJSON(t, router, http.MethodGet, "/stores", companyID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []integrationapp.StoreResponse
	decodeResponse(t, rec, &list)
	assert.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodGet, "/stores/"+id.String(), companyID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/stores/"+id.String(), companyID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	stores.AssertExpectations(t)
}

func TestStoreHandler_RotateCredentials(t *testing.T) {
	stores := new(mockStoreManager)
	id := uuid.New()
	stores.On("RotateCredentials", mock.Anything, mock.Anything, id, mock.MatchedBy(func(req integrationapp.RotateCredentialsRequest) bool {
		return req.ConsumerKey != nil && *req.ConsumerKey == "ck" && req.SyncAPIKey == nil
	})).Return(&integrationapp.StoreResponse{ID: id, HasCommerceCredentials: true}, nil)

	rec := doJSON(t, newStoreRouter(stores, nil, nil), http.MethodPut, "/stores/"+id.String()+"/credentials", uuid.New(), map[string]any{
		"consumer_key":    "ck",
		"consumer_secret": "cs",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	stores.AssertExpectations(t)
}

func TestStoreHandler_SyncInline(t *testing.T) {
	stores := new(mockStoreManager)
	syncer := new(mockSyncRunner)
	companyID, id := uuid.New(), uuid.New()
	syncer.On("SyncStoreForCompany", mock.Anything, companyID, id).
		Return(&integrationapp.CatalogSyncResult{StoreID: id, Products: 10, Variations: 4}, nil)

	rec := doJSON(t, newStoreRouter(stores, syncer, nil), http.MethodPost, "/stores/"+id.String()+"/sync", companyID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result integrationapp.CatalogSyncResult
	decodeResponse(t, rec, &result)
	assert.Equal(t, 10, result.Products)
}

func TestStoreHandler_SyncInlineGatewayFailure(t *testing.T) {
	syncer := new(mockSyncRunner)
	syncer.On("SyncStoreForCompany", mock.Anything, mock.Anything, mock.Anything).Return(nil, integration.ErrStoreUnavailable)

	rec := doJSON(t, newStoreRouter(new(mockStoreManager), syncer, nil), http.MethodPost, "/stores/"+uuid.NewString()+"/sync", uuid.New(), nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, dto.ErrCodeStoreUnavailable, resp.Error.Code)
}

func TestStoreHandler_SyncQueued(t *testing.T) {
	stores := new(mockStoreManager)
	queue := new(mockSyncQueue)
	companyID, id := uuid.New(), uuid.New()

	stores.On("Get", mock.Anything, companyID, id).Return(&integrationapp.StoreResponse{ID: id}, nil)
	queue.On("Submit", id, scheduler.TriggerManual).Return(&scheduler.Job{ID: uuid.New(), StoreID: id, Status: scheduler.JobStatusPending}, nil).Once()
	queue.On("Submit", id, scheduler.TriggerManual).Return(nil, scheduler.ErrSyncAlreadyQueued)

	router := newStoreRouter(stores, nil, queue)

	rec := doJSON(t, router, http.MethodPost, "/stores/"+id.String()+"/sync", companyID, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var job scheduler.Job
	decodeResponse(t, rec, &job)
	assert.Equal(t, scheduler.JobStatusPending, job.Status)

	rec = doJSON(t, router, http.MethodPost, "/stores/"+id.String()+"/sync", companyID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStoreHandler_SyncQueuedForeignStore(t *testing.T) {
	stores := new(mockStoreManager)
	queue := new(mockSyncQueue)
	stores.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, integration.ErrStoreNotFound)

	rec := doJSON(t, newStoreRouter(stores, nil, queue), http.MethodPost, "/stores/"+uuid.NewString()+"/sync", uuid.New(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestStoreHandler_SyncJobs(t *testing.T) {
	stores := new(mockStoreManager)
	queue := new(mockSyncQueue)
	companyID, id := uuid.New(), uuid.New()

	stores.On("Get", mock.Anything, companyID, id).Return(&integrationapp.StoreResponse{ID: id}, nil)
	queue.On("Jobs", &id).Return([]*scheduler.Job{
		{ID: uuid.New(), StoreID: id, Status: scheduler.JobStatusSuccess},
		{ID: uuid.New(), StoreID: id, Status: scheduler.JobStatusFailed, Error: "store unavailable"},
	})

	rec := doJSON(t, newStoreRouter(stores, nil, queue), http.MethodGet, "/stores/"+id.String()+"/sync-jobs", companyID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []scheduler.Job
	decodeResponse(t, rec, &jobs)
	assert.Len(t, jobs, 2)
}

func TestStoreHandler_SyncJobsWithoutScheduler(t *testing.T) {
	stores := new(mockStoreManager)
	id := uuid.New()
	stores.On("Get", mock.Anything, mock.Anything, id).Return(&integrationapp.StoreResponse{ID: id}, nil)

	rec := doJSON(t, newStoreRouter(stores, nil, nil), http.MethodGet, "/stores/"+id.String()+"/sync-jobs", uuid.New(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []scheduler.Job
	decodeResponse(t, rec, &jobs)
	assert.Empty(t, jobs)
}
