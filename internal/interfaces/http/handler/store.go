package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/infrastructure/scheduler"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

// StoreManager is the store onboarding use case surface
type StoreManager interface {
	Register(ctx context.Context, companyID uuid.UUID, req integrationapp.RegisterStoreRequest) (*integrationapp.StoreResponse, error)
	List(ctx context.Context, companyID uuid.UUID) ([]integrationapp.StoreResponse, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*integrationapp.StoreResponse, error)
	RotateCredentials(ctx context.Context, companyID, id uuid.UUID, req integrationapp.RotateCredentialsRequest) (*integrationapp.StoreResponse, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// CatalogSyncRunner pulls a store catalog in the request
type CatalogSyncRunner interface {
	SyncStoreForCompany(ctx context.Context, companyID, storeID uuid.UUID) (*integrationapp.CatalogSyncResult, error)
}

// CatalogSyncQueue runs catalog pulls in the background
type CatalogSyncQueue interface {
	Submit(storeID uuid.UUID, trigger scheduler.Trigger) (*scheduler.Job, error)
	Jobs(storeID *uuid.UUID) []*scheduler.Job
}

// StoreHandler handles store onboarding and catalog sync endpoints
type StoreHandler struct {
	BaseHandler
	stores StoreManager
	syncer CatalogSyncRunner
	queue  CatalogSyncQueue
}

// NewStoreHandler creates a new StoreHandler. A nil queue makes
// catalog syncs run inside the request.
func NewStoreHandler(stores StoreManager, syncer CatalogSyncRunner, queue CatalogSyncQueue) *StoreHandler {
	return &StoreHandler{stores: stores, syncer: syncer, queue: queue}
}

// Register godoc
// @Summary      Register a store
// @Description  Credentials are encrypted at rest and never returned.
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        request body integrationapp.RegisterStoreRequest true "Store"
// @Success      201 {object} dto.Response{data=integrationapp.StoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores [post]
func (h *StoreHandler) Register(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req integrationapp.RegisterStoreRequest
	if !h.bindJSON(c, &req) {
		return
	}

	store, err := h.stores.Register(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, store)
}

// List godoc
// @Summary      List stores
// @Tags         stores
// @Produce      json
// @Success      200 {object} dto.Response{data=[]integrationapp.StoreResponse}
// @Security     BearerAuth
// @Router       /stores [get]
func (h *StoreHandler) List(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	stores, err := h.stores.List(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stores)
}

// Get godoc
// @Summary      Get a store
// @Tags         stores
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.StoreResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id} [get]
func (h *StoreHandler) Get(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	store, err := h.stores.Get(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, store)
}

// RotateCredentials godoc
// @Summary      Replace store credentials
// @Description  Omitted pairs are kept. A pair must be sent complete.
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Param        request body integrationapp.RotateCredentialsRequest true "Credentials"
// @Success      200 {object} dto.Response{data=integrationapp.StoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id}/credentials [put]
func (h *StoreHandler) RotateCredentials(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req integrationapp.RotateCredentialsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	store, err := h.stores.RotateCredentials(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, store)
}

// Delete godoc
// @Summary      Delete a store
// @Description  Removes the store with its products, mapping items and webhook logs.
// @Tags         stores
// @Param        id path string true "Store ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id} [delete]
func (h *StoreHandler) Delete(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.stores.Delete(c.Request.Context(), companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Sync godoc
// @Summary      Pull the store catalog
// @Description  Queues a background job (202) or, without a scheduler, runs the pull in the request (200).
// @Tags         stores
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.CatalogSyncResult}
// @Success      202 {object} dto.Response{data=scheduler.Job}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id}/sync [post]
func (h *StoreHandler) Sync(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.queue == nil {
		result, err := h.syncer.SyncStoreForCompany(ctx, companyID, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, result)
		return
	}

	if _, err := h.stores.Get(ctx, companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	job, err := h.queue.Submit(id, scheduler.TriggerManual)
	switch {
	case errors.Is(err, scheduler.ErrSyncAlreadyQueued):
		h.Conflict(c, "A catalog sync is already queued for this store")
		return
	case errors.Is(err, scheduler.ErrJobQueueFull):
		h.TooManyRequests(c, "The sync queue is full, try again later")
		return
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Catalog sync is not available")
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, job)
}

// SyncJobs godoc
// @Summary      Recent catalog sync jobs of a store
// @Tags         stores
// @Produce      json
// @Param        id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]scheduler.Job}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stores/{id}/sync-jobs [get]
func (h *StoreHandler) SyncJobs(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.stores.Get(c.Request.Context(), companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	jobs := []*scheduler.Job{}
	if h.queue != nil {
		jobs = append(jobs, h.queue.Jobs(&id)...)
	}
	h.Success(c, jobs)
}
