package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// MappingManager is the product mapping use case surface
type MappingManager interface {
	Create(ctx context.Context, companyID uuid.UUID, req integrationapp.CreateMappingRequest) (*integrationapp.MappingResponse, error)
	AddProducts(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*integrationapp.MappingResponse, error)
	RemoveProducts(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*integrationapp.MappingResponse, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*integrationapp.MappingResponse, error)
	List(ctx context.Context, companyID uuid.UUID, req integrationapp.ListMappingsRequest) ([]integrationapp.MappingResponse, int64, error)
	Update(ctx context.Context, companyID, id uuid.UUID, req integrationapp.UpdateMappingRequest) (*integrationapp.MappingResponse, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	ConsolidatedInventory(ctx context.Context, companyID uuid.UUID) ([]integrationapp.InventoryLine, error)
}

// SuggestionMatcher proposes and applies mappings
type SuggestionMatcher interface {
	GetSuggestions(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) ([]integrationapp.SuggestionResponse, error)
	Dismiss(ctx context.Context, companyID uuid.UUID, key string) error
	Restore(ctx context.Context, companyID uuid.UUID, key string) error
	AutoMatch(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) (*integrationapp.AutoMatchResult, error)
	SearchCandidates(ctx context.Context, companyID uuid.UUID, req integrationapp.SearchCandidatesRequest) ([]integrationapp.CandidateResponse, error)
}

// MappingHandler handles product mapping endpoints
type MappingHandler struct {
	BaseHandler
	mappings MappingManager
	matcher  SuggestionMatcher
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappings MappingManager, matcher SuggestionMatcher) *MappingHandler {
	return &MappingHandler{mappings: mappings, matcher: matcher}
}

// listMappingsQuery holds the query string of the list endpoint
type listMappingsQuery struct {
	Search    string `form:"search" binding:"max=100"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=master_sku name created_at updated_at"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// searchCandidatesQuery holds the query string of the candidate search endpoint
type searchCandidatesQuery struct {
	Query string `form:"q" binding:"max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @Summary      Create a product mapping
// @Description  Links at least two products from at least two stores under one master SKU.
// @Description  The first product becomes the source of truth.
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Param        request body integrationapp.CreateMappingRequest true "Mapping"
// @Success      201 {object} dto.Response{data=integrationapp.MappingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings [post]
func (h *MappingHandler) Create(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req integrationapp.CreateMappingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	mapping, err := h.mappings.Create(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, mapping)
}

// List godoc
// @Summary      List product mappings
// @Tags         mappings
// @Produce      json
// @Param        search query string false "Master SKU or name contains"
// @Param        store_id query string false "Only mappings with an item in this store" format(uuid)
// @Param        sort_by query string false "Sort column" Enums(master_sku, name, created_at, updated_at)
// @Param        sort_order query string false "asc or desc" default(desc)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]integrationapp.MappingResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /mappings [get]
func (h *MappingHandler) List(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var q listMappingsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	storeID, ok := h.queryUUID(c, "store_id")
	if !ok {
		return
	}

	req := integrationapp.ListMappingsRequest{
		Search:    q.Search,
		StoreID:   storeID,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	mappings, total, err := h.mappings.List(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := shared.NormalizePage(req.Page, req.PageSize)
	h.SuccessWithMeta(c, mappings, total, page, pageSize)
}

// Get godoc
// @Summary      Get a product mapping
// @Description  Stock figures are recomputed from the current local mirror.
// @Tags         mappings
// @Produce      json
// @Param        id path string true "Mapping ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.MappingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings/{id} [get]
func (h *MappingHandler) Get(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	mapping, err := h.mappings.Get(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Update godoc
// @Summary      Rename a product mapping
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Param        id path string true "Mapping ID" format(uuid)
// @Param        request body integrationapp.UpdateMappingRequest true "New master SKU and/or name"
// @Success      200 {object} dto.Response{data=integrationapp.MappingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings/{id} [put]
func (h *MappingHandler) Update(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req integrationapp.UpdateMappingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	mapping, err := h.mappings.Update(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Delete godoc
// @Summary      Delete a product mapping
// @Tags         mappings
// @Param        id path string true "Mapping ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings/{id} [delete]
func (h *MappingHandler) Delete(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.mappings.Delete(c.Request.Context(), companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddProducts godoc
// @Summary      Add products to a mapping
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Param        id path string true "Mapping ID" format(uuid)
// @Param        request body integrationapp.MappingProductsRequest true "Products to add"
// @Success      200 {object} dto.Response{data=integrationapp.MappingResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings/{id}/products [post]
func (h *MappingHandler) AddProducts(c *gin.Context) {
	h.changeProducts(c, h.mappings.AddProducts)
}

// RemoveProducts godoc
// @Summary      Remove products from a mapping
// @Description  The source item cannot be removed and the mapping must keep two stores.
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Param        id path string true "Mapping ID" format(uuid)
// @Param        request body integrationapp.MappingProductsRequest true "Products to remove"
// @Success      200 {object} dto.Response{data=integrationapp.MappingResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings/{id}/products [delete]
func (h *MappingHandler) RemoveProducts(c *gin.Context) {
	h.changeProducts(c, h.mappings.RemoveProducts)
}

func (h *MappingHandler) changeProducts(
	c *gin.Context,
	apply func(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*integrationapp.MappingResponse, error),
) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req integrationapp.MappingProductsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	mapping, err := apply(c.Request.Context(), companyID, id, req.ProductIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Inventory godoc
// @Summary      Consolidated inventory
// @Description  Per mapping, the stock of every linked item with total and real stock.
// @Tags         mappings
// @Produce      json
// @Success      200 {object} dto.Response{data=[]integrationapp.InventoryLine}
// @Security     BearerAuth
// @Router       /mappings/inventory [get]
func (h *MappingHandler) Inventory(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	lines, err := h.mappings.ConsolidatedInventory(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// Suggestions godoc
// @Summary      Mapping suggestions
// @Description  Unmapped products grouped by SKU or normalized name across two or more stores.
// @Tags         mappings
// @Produce      json
// @Param        store_id query string false "Only groups containing this store" format(uuid)
// @Success      200 {object} dto.Response{data=[]integrationapp.SuggestionResponse}
// @Security     BearerAuth
// @Router       /mappings/suggestions [get]
func (h *MappingHandler) Suggestions(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	storeID, ok := h.queryUUID(c, "store_id")
	if !ok {
		return
	}

	suggestions, err := h.matcher.GetSuggestions(c.Request.Context(), companyID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestions)
}

// AutoMatch godoc
// @Summary      Create mappings from all suggestions
// @Tags         mappings
// @Produce      json
// @Param        store_id query string false "Only groups containing this store" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.AutoMatchResult}
// @Security     BearerAuth
// @Router       /mappings/auto [post]
func (h *MappingHandler) AutoMatch(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	storeID, ok := h.queryUUID(c, "store_id")
	if !ok {
		return
	}

	result, err := h.matcher.AutoMatch(c.Request.Context(), companyID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DismissSuggestion godoc
// @Summary      Hide a suggestion
// @Tags         mappings
// @Accept       json
// @Param        request body integrationapp.DismissSuggestionRequest true "Suggestion key"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mappings/suggestions/dismiss [post]
func (h *MappingHandler) DismissSuggestion(c *gin.Context) {
	h.suggestionKey(c, h.matcher.Dismiss)
}

// RestoreSuggestion godoc
// @Summary      Show a dismissed suggestion again
// @Tags         mappings
// @Accept       json
// @Param        request body integrationapp.DismissSuggestionRequest true "Suggestion key"
// @Success      204
// @Security     BearerAuth
// @Router       /mappings/suggestions/dismiss [delete]
func (h *MappingHandler) RestoreSuggestion(c *gin.Context) {
	h.suggestionKey(c, h.matcher.Restore)
}

func (h *MappingHandler) suggestionKey(c *gin.Context, apply func(ctx context.Context, companyID uuid.UUID, key string) error) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req integrationapp.DismissSuggestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := apply(c.Request.Context(), companyID, req.Key); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SearchCandidates godoc
// @Summary      Search unmapped products
// @Tags         mappings
// @Produce      json
// @Param        q query string false "Name or SKU contains"
// @Param        store_id query string false "Store filter" format(uuid)
// @Param        limit query int false "Max results" default(20)
// @Success      200 {object} dto.Response{data=[]integrationapp.CandidateResponse}
// @Security     BearerAuth
// @Router       /mappings/search [get]
func (h *MappingHandler) SearchCandidates(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var q searchCandidatesQuery
	if !h.bindQuery(c, &q) {
		return
	}
	storeID, ok := h.queryUUID(c, "store_id")
	if !ok {
		return
	}

	candidates, err := h.matcher.SearchCandidates(c.Request.Context(), companyID, integrationapp.SearchCandidatesRequest{
		Query:   q.Query,
		StoreID: storeID,
		Limit:   q.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, candidates)
}
