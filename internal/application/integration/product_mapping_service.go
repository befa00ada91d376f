package integration

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// ProductMappingService manages durable product mappings
type ProductMappingService struct {
	mappingRepo integration.ProductMappingRepository
	productRepo catalog.ProductRepository
	storeRepo   catalog.StoreRepository
}

// NewProductMappingService creates a new ProductMappingService
func NewProductMappingService(
	mappingRepo integration.ProductMappingRepository,
	productRepo catalog.ProductRepository,
	storeRepo catalog.StoreRepository,
) *ProductMappingService {
	return &ProductMappingService{
		mappingRepo: mappingRepo,
		productRepo: productRepo,
		storeRepo:   storeRepo,
	}
}

// ---------------------------------------------------------------------------
// CRUD Operations
// ---------------------------------------------------------------------------

// Create validates and persists a new mapping. The first product in input
// order becomes the source.
func (s *ProductMappingService) Create(ctx context.Context, companyID uuid.UUID, req CreateMappingRequest) (*MappingResponse, error) {
	mapping, err := s.create(ctx, companyID, req.MasterSKU, req.Name, req.ProductIDs)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, companyID, mapping)
}

func (s *ProductMappingService) create(
	ctx context.Context,
	companyID uuid.UUID,
	masterSKU, name string,
	productIDs []uuid.UUID,
) (*integration.ProductMapping, error) {
	exists, err := s.mappingRepo.ExistsByMasterSKU(ctx, companyID, masterSKU, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, integration.ErrMasterSKUExists
	}

	members, err := s.resolveMembers(ctx, companyID, productIDs)
	if err != nil {
		return nil, err
	}

	mapping, err := integration.NewProductMapping(companyID, masterSKU, name, members)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUnmapped(ctx, mapping.ProductIDs()); err != nil {
		return nil, err
	}

	if err := s.mappingRepo.Create(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// AddProducts adds products to an existing mapping. Products already in the
// mapping are no-ops.
func (s *ProductMappingService) AddProducts(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*MappingResponse, error) {
	mapping, err := s.mappingRepo.FindByID(ctx, companyID, mappingID)
	if err != nil {
		return nil, err
	}

	members, err := s.resolveMembers(ctx, companyID, productIDs)
	if err != nil {
		return nil, err
	}
	var fresh []uuid.UUID
	for _, m := range members {
		if mapping.ItemForProduct(m.ProductID) == nil {
			fresh = append(fresh, m.ProductID)
		}
	}
	if err := s.ensureUnmapped(ctx, fresh); err != nil {
		return nil, err
	}

	added := mapping.AddMembers(members)
	if len(added) > 0 {
		if err := s.mappingRepo.AddItems(ctx, added); err != nil {
			return nil, err
		}
	}
	return s.toResponse(ctx, companyID, mapping)
}

// RemoveProducts removes products from a mapping. The mapping must keep at
// least two items from two stores and its source item.
func (s *ProductMappingService) RemoveProducts(ctx context.Context, companyID, mappingID uuid.UUID, productIDs []uuid.UUID) (*MappingResponse, error) {
	mapping, err := s.mappingRepo.FindByID(ctx, companyID, mappingID)
	if err != nil {
		return nil, err
	}

	removed, err := mapping.RemoveProducts(productIDs)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		if err := s.mappingRepo.RemoveItems(ctx, mapping.ID, removed); err != nil {
			return nil, err
		}
	}
	return s.toResponse(ctx, companyID, mapping)
}

// Get returns one mapping with recomputed stock
func (s *ProductMappingService) Get(ctx context.Context, companyID, id uuid.UUID) (*MappingResponse, error) {
	mapping, err := s.mappingRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, companyID, mapping)
}

// List returns a page of mappings and the total count
func (s *ProductMappingService) List(ctx context.Context, companyID uuid.UUID, req ListMappingsRequest) ([]MappingResponse, int64, error) {
	page, pageSize := shared.NormalizePage(req.Page, req.PageSize)
	filter := integration.ProductMappingFilter{
		Search:   req.Search,
		StoreID:  req.StoreID,
		OrderBy:  req.SortBy,
		OrderDir: req.SortOrder,
		Page:     page,
		PageSize: pageSize,
	}

	mappings, err := s.mappingRepo.FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.mappingRepo.Count(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.newViewBuilder(ctx, companyID, mappings)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MappingResponse, len(mappings))
	for i := range mappings {
		out[i] = views.mapping(&mappings[i])
	}
	return out, total, nil
}

// Update renames a mapping; the master SKU must stay unique
func (s *ProductMappingService) Update(ctx context.Context, companyID, id uuid.UUID, req UpdateMappingRequest) (*MappingResponse, error) {
	mapping, err := s.mappingRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	masterSKU, name := mapping.MasterSKU, mapping.Name
	if req.MasterSKU != nil {
		masterSKU = *req.MasterSKU
	}
	if req.Name != nil {
		name = *req.Name
	}
	if err := mapping.Rename(masterSKU, name); err != nil {
		return nil, err
	}

	exists, err := s.mappingRepo.ExistsByMasterSKU(ctx, companyID, mapping.MasterSKU, &mapping.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, integration.ErrMasterSKUExists
	}

	if err := s.mappingRepo.Update(ctx, mapping); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, companyID, mapping)
}

// Delete removes a mapping and unmaps all its items
func (s *ProductMappingService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	if _, err := s.mappingRepo.FindByID(ctx, companyID, id); err != nil {
		return err
	}
	return s.mappingRepo.Delete(ctx, companyID, id)
}

// ConsolidatedInventory returns per-store stock lines for every mapping
func (s *ProductMappingService) ConsolidatedInventory(ctx context.Context, companyID uuid.UUID) ([]InventoryLine, error) {
	var all []integration.ProductMapping
	for page := 1; ; page++ {
		batch, err := s.mappingRepo.FindAll(ctx, companyID, integration.ProductMappingFilter{Page: page, PageSize: shared.MaxPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < shared.MaxPageSize {
			break
		}
	}

	views, err := s.newViewBuilder(ctx, companyID, all)
	if err != nil {
		return nil, err
	}

	lines := make([]InventoryLine, 0, len(all))
	for i := range all {
		view := views.mapping(&all[i])
		line := InventoryLine{
			MappingID:  view.ID,
			MasterSKU:  view.MasterSKU,
			Name:       view.Name,
			Stores:     make([]InventoryStoreLine, 0, len(view.Items)),
			TotalStock: view.TotalStock,
			RealStock:  view.RealStock,
		}
		for _, item := range view.Items {
			line.Stores = append(line.Stores, InventoryStoreLine{
				StoreID:       item.StoreID,
				StoreName:     item.StoreName,
				ProductID:     item.ProductID,
				SKU:           item.SKU,
				StockQuantity: item.StockQuantity,
				IsSource:      item.IsSource,
			})
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].MasterSKU < lines[j].MasterSKU })
	return lines, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// resolveMembers loads products in input order, rejecting any that do not
// belong to one of the company's stores
func (s *ProductMappingService) resolveMembers(ctx context.Context, companyID uuid.UUID, productIDs []uuid.UUID) ([]integration.MappingMember, error) {
	products, err := s.productRepo.FindByIDsForCompany(ctx, companyID, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	members := make([]integration.MappingMember, 0, len(productIDs))
	var missing []string
	for _, id := range productIDs {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id.String())
			continue
		}
		members = append(members, integration.MappingMember{ProductID: p.ID, StoreID: p.StoreID, SKU: p.SKU})
	}
	if len(missing) > 0 {
		return nil, integration.ErrProductNotFound.WithDetails(missing...)
	}
	return members, nil
}

// ensureUnmapped rejects products that already belong to a mapping, listing
// the conflicting master SKUs
func (s *ProductMappingService) ensureUnmapped(ctx context.Context, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	mapped, err := s.mappingRepo.MasterSKUsByProduct(ctx, productIDs)
	if err != nil {
		return err
	}
	if len(mapped) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(mapped))
	conflicts := make([]string, 0, len(mapped))
	for _, sku := range mapped {
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		conflicts = append(conflicts, sku)
	}
	sort.Strings(conflicts)
	return integration.ErrProductAlreadyMapped.WithDetails(conflicts...)
}

func (s *ProductMappingService) toResponse(ctx context.Context, companyID uuid.UUID, mapping *integration.ProductMapping) (*MappingResponse, error) {
	views, err := s.newViewBuilder(ctx, companyID, []integration.ProductMapping{*mapping})
	if err != nil {
		return nil, err
	}
	resp := views.mapping(mapping)
	return &resp, nil
}

// viewBuilder renders mappings with live product stock and store names
type viewBuilder struct {
	products map[uuid.UUID]*catalog.Product
	stores   map[uuid.UUID]string
}

func (s *ProductMappingService) newViewBuilder(ctx context.Context, companyID uuid.UUID, mappings []integration.ProductMapping) (*viewBuilder, error) {
	var ids []uuid.UUID
	for i := range mappings {
		ids = append(ids, mappings[i].ProductIDs()...)
	}

	vb := &viewBuilder{
		products: make(map[uuid.UUID]*catalog.Product, len(ids)),
		stores:   make(map[uuid.UUID]string),
	}
	if len(ids) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range products {
			vb.products[products[i].ID] = &products[i]
		}
	}

	stores, err := s.storeRepo.FindAllForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for _, st := range stores {
		vb.stores[st.ID] = st.Name
	}
	return vb, nil
}

// mapping recomputes item stock from the products. RealStock comes only from
// the item flagged as source.
func (vb *viewBuilder) mapping(m *integration.ProductMapping) MappingResponse {
	resp := MappingResponse{
		ID:         m.ID,
		MasterSKU:  m.MasterSKU,
		Name:       m.Name,
		Items:      make([]MappingItemResponse, 0, len(m.Items)),
		StoreCount: m.StoreCount(),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	for _, item := range m.Items {
		view := MappingItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			StoreName: vb.stores[item.StoreID],
			SKU:       item.SKU,
			IsSource:  item.IsSource,
			CreatedAt: item.CreatedAt,
		}
		if p, ok := vb.products[item.ProductID]; ok {
			view.ProductName = p.Name
			view.StockQuantity = p.EffectiveStock()
		}
		resp.TotalStock += view.StockQuantity
		if item.IsSource {
			resp.RealStock = view.StockQuantity
		}
		resp.Items = append(resp.Items, view)
	}
	return resp
}
