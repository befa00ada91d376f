package integration

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type fakeStoreRepo struct {
	mu       sync.Mutex
	stores   map[uuid.UUID]catalog.Store
	order    []uuid.UUID
	products *fakeProductRepo
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: make(map[uuid.UUID]catalog.Store)}
}

func (r *fakeStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *fakeStoreRepo) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*catalog.Store, error) {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *fakeStoreRepo) FindAllForCompany(_ context.Context, companyID uuid.UUID) ([]catalog.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Store
	for _, id := range r.order {
		if s, ok := r.stores[id]; ok && s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStoreRepo) FindByHost(_ context.Context, host string) ([]catalog.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Store
	for _, id := range r.order {
		s, ok := r.stores[id]
		if !ok {
			continue
		}
		h := s.Host()
		if strings.Contains(h, host) || strings.Contains(host, h) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStoreRepo) FindAllWithCommerceCredentials(_ context.Context) ([]catalog.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Store
	for _, id := range r.order {
		if s, ok := r.stores[id]; ok && s.HasCommerceCredentials() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStoreRepo) Save(_ context.Context, store *catalog.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[store.ID]; !ok {
		r.order = append(r.order, store.ID)
	}
	r.stores[store.ID] = *store
	return nil
}

func (r *fakeStoreRepo) UpdateLastSyncAt(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	if !ok {
		return shared.ErrNotFound
	}
	s.MarkSynced(at)
	r.stores[id] = s
	return nil
}

func (r *fakeStoreRepo) DeleteForCompany(_ context.Context, companyID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	if !ok || s.CompanyID != companyID {
		return shared.ErrNotFound
	}
	delete(r.stores, id)
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	order    []uuid.UUID
	stores   *fakeStoreRepo
	mappings *fakeMappingRepo
	saves    int
}

func newFakeProductRepo(stores *fakeStoreRepo) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]catalog.Product), stores: stores}
	stores.products = r
	return r
}

func cloneProduct(p catalog.Product) catalog.Product {
	p.Variations = append([]catalog.ProductVariation(nil), p.Variations...)
	return p
}

func (r *fakeProductRepo) put(p *catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = cloneProduct(*p)
}

func (r *fakeProductRepo) get(id uuid.UUID) catalog.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneProduct(r.products[id])
}

func (r *fakeProductRepo) companyOf(p catalog.Product) uuid.UUID {
	s, ok := r.stores.stores[p.StoreID]
	if !ok {
		return uuid.Nil
	}
	return s.CompanyID
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := cloneProduct(p)
	return &c, nil
}

func (r *fakeProductRepo) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.companyOf(*p) != companyID {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindByIDsForCompany(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	all, _ := r.FindByIDs(ctx, ids)
	out := make([]catalog.Product, 0, len(all))
	for _, p := range all {
		if r.companyOf(p) == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindByRemoteID(_ context.Context, storeID uuid.UUID, remoteID int64) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		p := r.products[id]
		if p.StoreID == storeID && p.RemoteID == remoteID {
			c := cloneProduct(p)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByVariationRemoteID(_ context.Context, storeID uuid.UUID, remoteVariationID int64) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		p := r.products[id]
		if p.StoreID == storeID && p.VariationByRemoteID(remoteVariationID) != nil {
			c := cloneProduct(p)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindUnmappedForCompany(_ context.Context, companyID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(filter.Search)
	var out []catalog.Product
	for _, id := range r.order {
		p := r.products[id]
		if r.companyOf(p) != companyID {
			continue
		}
		if r.mappings != nil && r.mappings.isMapped(p.ID) {
			continue
		}
		if filter.StoreID != nil && p.StoreID != *filter.StoreID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		out = append(out, cloneProduct(p))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeProductRepo) SaveStock(_ context.Context, product *catalog.Product) error {
	r.put(product)
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	return nil
}

func (r *fakeProductRepo) SaveVariationStock(ctx context.Context, product *catalog.Product, _ *catalog.ProductVariation) error {
	return r.SaveStock(ctx, product)
}

func (r *fakeProductRepo) Upsert(_ context.Context, product *catalog.Product) error {
	r.put(product)
	return nil
}

func (r *fakeProductRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

type fakeMappingRepo struct {
	mu       sync.Mutex
	mappings map[uuid.UUID]integration.ProductMapping
	order    []uuid.UUID
}

func newFakeMappingRepo(products *fakeProductRepo) *fakeMappingRepo {
	r := &fakeMappingRepo{mappings: make(map[uuid.UUID]integration.ProductMapping)}
	if products != nil {
		products.mappings = r
	}
	return r
}

func cloneMapping(m integration.ProductMapping) integration.ProductMapping {
	m.Items = append([]integration.ProductMappingItem(nil), m.Items...)
	return m
}

func (r *fakeMappingRepo) isMapped(productID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.ItemForProduct(productID) != nil {
			return true
		}
	}
	return false
}

func (r *fakeMappingRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[id]
	if !ok || m.CompanyID != companyID {
		return nil, integration.ErrMappingNotFound
	}
	c := cloneMapping(m)
	return &c, nil
}

func (r *fakeMappingRepo) FindByProductID(_ context.Context, productID uuid.UUID) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.ItemForProduct(productID) != nil {
			c := cloneMapping(m)
			return &c, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *fakeMappingRepo) MasterSKUsByProduct(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]string)
	for _, id := range productIDs {
		for _, m := range r.mappings {
			if m.ItemForProduct(id) != nil {
				out[id] = m.MasterSKU
			}
		}
	}
	return out, nil
}

func (r *fakeMappingRepo) ExistsByMasterSKU(_ context.Context, companyID uuid.UUID, masterSKU string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.CompanyID != companyID || m.MasterSKU != strings.TrimSpace(masterSKU) {
			continue
		}
		if excludeID != nil && m.ID == *excludeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *fakeMappingRepo) FindAll(_ context.Context, companyID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, error) {
	all := r.filtered(companyID, filter)
	page, size := shared.NormalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * size
	if start >= len(all) {
		return []integration.ProductMapping{}, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *fakeMappingRepo) Count(_ context.Context, companyID uuid.UUID, filter integration.ProductMappingFilter) (int64, error) {
	return int64(len(r.filtered(companyID, filter))), nil
}

func (r *fakeMappingRepo) filtered(companyID uuid.UUID, filter integration.ProductMappingFilter) []integration.ProductMapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(filter.Search)
	var out []integration.ProductMapping
	for i := len(r.order) - 1; i >= 0; i-- {
		m, ok := r.mappings[r.order[i]]
		if !ok || m.CompanyID != companyID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.MasterSKU), search) && !strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		if filter.StoreID != nil {
			found := false
			for _, item := range m.Items {
				if item.StoreID == *filter.StoreID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, cloneMapping(m))
	}
	return out
}

func (r *fakeMappingRepo) Create(_ context.Context, mapping *integration.ProductMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.CompanyID == mapping.CompanyID && m.MasterSKU == mapping.MasterSKU {
			return integration.ErrMasterSKUExists
		}
		for _, item := range mapping.Items {
			if m.ItemForProduct(item.ProductID) != nil {
				return integration.ErrProductAlreadyMapped
			}
		}
	}
	r.mappings[mapping.ID] = cloneMapping(*mapping)
	r.order = append(r.order, mapping.ID)
	return nil
}

func (r *fakeMappingRepo) AddItems(_ context.Context, items []integration.ProductMappingItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		m, ok := r.mappings[item.MappingID]
		if !ok {
			return integration.ErrMappingNotFound
		}
		if m.ItemForProduct(item.ProductID) == nil {
			m.Items = append(m.Items, item)
		}
		r.mappings[item.MappingID] = m
	}
	return nil
}

func (r *fakeMappingRepo) RemoveItems(_ context.Context, mappingID uuid.UUID, productIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[mappingID]
	if !ok {
		return integration.ErrMappingNotFound
	}
	drop := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := m.Items[:0:0]
	for _, item := range m.Items {
		if !drop[item.ProductID] {
			kept = append(kept, item)
		}
	}
	m.Items = kept
	r.mappings[mappingID] = m
	return nil
}

func (r *fakeMappingRepo) Update(_ context.Context, mapping *integration.ProductMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[mapping.ID]
	if !ok {
		return integration.ErrMappingNotFound
	}
	m.MasterSKU = mapping.MasterSKU
	m.Name = mapping.Name
	r.mappings[mapping.ID] = m
	return nil
}

func (r *fakeMappingRepo) Delete(_ context.Context, companyID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[id]
	if !ok || m.CompanyID != companyID {
		return integration.ErrMappingNotFound
	}
	delete(r.mappings, id)
	return nil
}

type fakeDismissedRepo struct {
	mu   sync.Mutex
	keys map[uuid.UUID]map[string]struct{}
}

func newFakeDismissedRepo() *fakeDismissedRepo {
	return &fakeDismissedRepo{keys: make(map[uuid.UUID]map[string]struct{})}
}

func (r *fakeDismissedRepo) Keys(_ context.Context, companyID uuid.UUID) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{}, len(r.keys[companyID]))
	for k := range r.keys[companyID] {
		out[k] = struct{}{}
	}
	return out, nil
}

func (r *fakeDismissedRepo) Dismiss(_ context.Context, companyID uuid.UUID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keys[companyID] == nil {
		r.keys[companyID] = make(map[string]struct{})
	}
	r.keys[companyID][key] = struct{}{}
	return nil
}

func (r *fakeDismissedRepo) Restore(_ context.Context, companyID uuid.UUID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys[companyID], key)
	return nil
}

type fakeWebhookLogRepo struct {
	mu   sync.Mutex
	logs []integration.WebhookLog
}

func (r *fakeWebhookLogRepo) Create(_ context.Context, log *integration.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeWebhookLogRepo) UpdateStatus(_ context.Context, log *integration.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.logs {
		if r.logs[i].ID == log.ID {
			r.logs[i].Status = log.Status
			r.logs[i].Message = log.Message
			r.logs[i].ProductID = log.ProductID
			r.logs[i].ProcessedAt = log.ProcessedAt
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *fakeWebhookLogRepo) FindByStore(_ context.Context, storeID uuid.UUID, filter integration.WebhookLogFilter) ([]integration.WebhookLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.WebhookLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if l.StoreID != storeID {
			continue
		}
		if filter.Direction != nil && l.Direction != *filter.Direction {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeWebhookLogRepo) Stats(_ context.Context, storeID uuid.UUID, since time.Time) (*integration.WebhookStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &integration.WebhookStats{}
	for _, l := range r.logs {
		if l.StoreID != storeID || l.CreatedAt.Before(since) {
			continue
		}
		stats.Total++
		switch l.Status {
		case integration.WebhookStatusPending:
			stats.Pending++
		case integration.WebhookStatusSuccess:
			stats.Success++
		case integration.WebhookStatusFailed:
			stats.Failed++
		}
		if l.Direction == integration.WebhookDirectionInbound {
			stats.Inbound++
			at := l.CreatedAt
			if stats.LastReceivedAt == nil || at.After(*stats.LastReceivedAt) {
				stats.LastReceivedAt = &at
			}
		} else {
			stats.Outbound++
		}
	}
	return stats, nil
}

func (r *fakeWebhookLogRepo) byDirection(d integration.WebhookDirection) []integration.WebhookLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []integration.WebhookLog
	for _, l := range r.logs {
		if l.Direction == d {
			out = append(out, l)
		}
	}
	return out
}

type fakeCooldownStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	readErr error
}

func newFakeCooldownStore() *fakeCooldownStore {
	return &fakeCooldownStore{entries: make(map[string]time.Time)}
}

func (c *fakeCooldownStore) LastApplied(_ context.Context, key string) (time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return time.Time{}, false, c.readErr
	}
	at, ok := c.entries[key]
	return at, ok, nil
}

func (c *fakeCooldownStore) RecordApplied(_ context.Context, key string, at time.Time, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = at
	return nil
}

func (c *fakeCooldownStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Gateway doubles
// ---------------------------------------------------------------------------

// MockStockConnector is a mock implementation of StockConnector
type MockStockConnector struct {
	mock.Mock
}

func (m *MockStockConnector) UpdateStock(ctx context.Context, target integration.StockTarget, quantity int) (int, error) {
	args := m.Called(ctx, target, quantity)
	if fn, ok := args.Get(0).(func(context.Context, integration.StockTarget, int) int); ok {
		return fn(ctx, target, quantity), args.Error(1)
	}
	return args.Int(0), args.Error(1)
}

func (m *MockStockConnector) UpdatePurchasePrice(ctx context.Context, target integration.StockTarget, price decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, target, price)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type fakeConnectorFactory struct {
	connectors map[uuid.UUID]integration.StockConnector
}

func (f *fakeConnectorFactory) ConnectorFor(store *catalog.Store) (integration.StockConnector, error) {
	if !store.HasSyncCredentials() {
		return nil, integration.ErrSyncCredentialsMissing
	}
	c, ok := f.connectors[store.ID]
	if !ok {
		return nil, integration.ErrCredentialDecrypt
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	companyID uuid.UUID
	clock     *shared.FixedClock
	stores    *fakeStoreRepo
	products  *fakeProductRepo
	mappings  *fakeMappingRepo
	dismissed *fakeDismissedRepo
	logs      *fakeWebhookLogRepo
	cooldown  *fakeCooldownStore
	factory   *fakeConnectorFactory
}

func newFixture() *fixture {
	stores := newFakeStoreRepo()
	products := newFakeProductRepo(stores)
	return &fixture{
		companyID: uuid.New(),
		clock:     &shared.FixedClock{T: time.Date(2024, 1, 19, 12, 0, 0, 0, time.UTC)},
		stores:    stores,
		products:  products,
		mappings:  newFakeMappingRepo(products),
		dismissed: newFakeDismissedRepo(),
		logs:      &fakeWebhookLogRepo{},
		cooldown:  newFakeCooldownStore(),
		factory:   &fakeConnectorFactory{connectors: make(map[uuid.UUID]integration.StockConnector)},
	}
}

// addStore registers a store; withSync also installs a mock connector for it
func (f *fixture) addStore(t *testing.T, name, url string, withSync bool) (*catalog.Store, *MockStockConnector) {
	t.Helper()
	store, err := catalog.NewStore(f.companyID, name, url)
	require.NoError(t, err)
	var conn *MockStockConnector
	if withSync {
		store.SetSyncCredentials("enc-key", "enc-secret")
		conn = new(MockStockConnector)
		f.factory.connectors[store.ID] = conn
	}
	require.NoError(t, f.stores.Save(context.Background(), store))
	return store, conn
}

func (f *fixture) addProduct(t *testing.T, store *catalog.Store, remoteID int64, name, sku string, qty int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(store.ID, remoteID, name, sku, catalog.ProductTypeSimple)
	require.NoError(t, err)
	p.ApplyStock(qty, f.clock.Now())
	f.products.put(p)
	return p
}

func (f *fixture) addVariableProduct(t *testing.T, store *catalog.Store, remoteID int64, name string, variations map[int64]string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(store.ID, remoteID, name, "", catalog.ProductTypeVariable)
	require.NoError(t, err)
	ids := make([]int64, 0, len(variations))
	for id := range variations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		v, err := catalog.NewProductVariation(p.ID, id, variations[id])
		require.NoError(t, err)
		p.Variations = append(p.Variations, *v)
	}
	f.products.put(p)
	return p
}

func (f *fixture) addMapping(t *testing.T, masterSKU string, products ...*catalog.Product) *integration.ProductMapping {
	t.Helper()
	members := make([]integration.MappingMember, len(products))
	for i, p := range products {
		members[i] = integration.MappingMember{ProductID: p.ID, StoreID: p.StoreID, SKU: p.SKU}
	}
	m, err := integration.NewProductMapping(f.companyID, masterSKU, "", members)
	require.NoError(t, err)
	require.NoError(t, f.mappings.Create(context.Background(), m))
	return m
}

func (f *fixture) mappingService() *ProductMappingService {
	return NewProductMappingService(f.mappings, f.products, f.stores)
}

func (f *fixture) matchingService() *MatchingService {
	return NewMatchingService(f.products, f.stores, f.dismissed, f.mappingService())
}

func (f *fixture) syncService() *StockSyncService {
	return NewStockSyncService(f.stores, f.products, f.mappings, f.logs, f.cooldown, f.factory, WithClock(f.clock))
}
