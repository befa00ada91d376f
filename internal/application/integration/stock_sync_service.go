package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/logger"
)

// Messages recorded on webhook logs and returned to webhook senders
const (
	MsgStoreNotFound   = "store not found"
	MsgProductNotFound = "product not found"
	MsgInvalidPayload  = "payload must carry product_id or variation_id and stock_quantity or purchase_price"
	MsgCooldownSkipped = "skipped - cooldown"
)

// StockSyncConfig holds coordinator settings
type StockSyncConfig struct {
	// CooldownWindow suppresses repeat updates to the same remote item
	CooldownWindow time.Duration
}

// DefaultStockSyncConfig returns the default coordinator settings
func DefaultStockSyncConfig() StockSyncConfig {
	return StockSyncConfig{CooldownWindow: integration.DefaultCooldownWindow}
}

// StockSyncService is the synchronization coordinator. It applies inbound
// stock changes to the local mirror and, when the change comes from a
// mapping's source item, pushes the new quantity to every sibling store.
type StockSyncService struct {
	storeRepo   catalog.StoreRepository
	productRepo catalog.ProductRepository
	mappingRepo integration.ProductMappingRepository
	logRepo     integration.WebhookLogRepository
	cooldown    integration.CooldownStore
	connectors  integration.StockConnectorFactory
	clock       shared.Clock
	metrics     SyncMetrics
	config      StockSyncConfig
	logger      *zap.Logger
}

// StockSyncOption configures a StockSyncService
type StockSyncOption func(*StockSyncService)

// WithClock injects the clock used for cooldown checks and timestamps
func WithClock(clock shared.Clock) StockSyncOption {
	return func(s *StockSyncService) {
		s.clock = clock
	}
}

// WithSyncMetrics injects a metrics recorder
func WithSyncMetrics(metrics SyncMetrics) StockSyncOption {
	return func(s *StockSyncService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithStockSyncConfig overrides the default settings
func WithStockSyncConfig(cfg StockSyncConfig) StockSyncOption {
	return func(s *StockSyncService) {
		if cfg.CooldownWindow > 0 {
			s.config.CooldownWindow = cfg.CooldownWindow
		}
	}
}

// WithStockSyncLogger sets the logger
func WithStockSyncLogger(l *zap.Logger) StockSyncOption {
	return func(s *StockSyncService) {
		s.logger = l
	}
}

// NewStockSyncService creates a new StockSyncService
func NewStockSyncService(
	storeRepo catalog.StoreRepository,
	productRepo catalog.ProductRepository,
	mappingRepo integration.ProductMappingRepository,
	logRepo integration.WebhookLogRepository,
	cooldown integration.CooldownStore,
	connectors integration.StockConnectorFactory,
	opts ...StockSyncOption,
) *StockSyncService {
	s := &StockSyncService{
		storeRepo:   storeRepo,
		productRepo: productRepo,
		mappingRepo: mappingRepo,
		logRepo:     logRepo,
		cooldown:    cooldown,
		connectors:  connectors,
		clock:       shared.SystemClock{},
		metrics:     noopSyncMetrics{},
		config:      DefaultStockSyncConfig(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Inbound webhook
// ---------------------------------------------------------------------------

// HandleStockWebhook processes a verified inbound change notification.
// Business failures are reported in the result; an error is returned only
// when the audit row itself cannot be written.
func (s *StockSyncService) HandleStockWebhook(ctx context.Context, event WebhookEvent) (*WebhookResult, error) {
	log := logger.WithLogger(ctx, s.logger).With(zap.String("event", event.Event), zap.String("store_url", event.StoreURL))

	store, err := s.resolveStore(ctx, event.StoreURL)
	if err != nil {
		log.Warn("Webhook store resolution failed", zap.Error(err))
		s.metrics.RecordWebhook(ctx, string(integration.WebhookStatusFailed))
		return &WebhookResult{Success: false, Message: MsgStoreNotFound}, nil
	}
	log = log.With(zap.String("store_id", store.ID.String()))

	entry := integration.NewWebhookLog(store.ID, eventType(event), integration.WebhookDirectionInbound, event.RawPayload, s.clock.Now())
	if err := s.logRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record webhook: %w", err)
	}

	result := s.processInbound(ctx, log, store, entry, event.Data)

	if result.Success {
		_ = entry.MarkSuccess(result.Message, s.clock.Now())
	} else {
		_ = entry.MarkFailed(result.Message, s.clock.Now())
	}
	if err := s.logRepo.UpdateStatus(ctx, entry); err != nil {
		log.Error("Failed to finalize webhook log", zap.String("log_id", entry.ID.String()), zap.Error(err))
	}
	s.metrics.RecordWebhook(ctx, string(entry.Status))
	return result, nil
}

func (s *StockSyncService) processInbound(
	ctx context.Context,
	log *logger.ContextLogger,
	store *catalog.Store,
	entry *integration.WebhookLog,
	data WebhookData,
) *WebhookResult {
	target, ok := webhookTarget(data)
	if !ok || (data.StockQuantity == nil && data.PurchasePrice == nil) {
		return &WebhookResult{Success: false, Message: MsgInvalidPayload}
	}

	// only stock changes fan out, so only they can echo back
	stockChange := data.StockQuantity != nil
	key := integration.CooldownKey{StoreID: store.ID, Kind: target.Kind(), RemoteID: target.RemoteID()}.String()
	if stockChange && s.inCooldown(ctx, log, key) {
		s.metrics.RecordCooldownSkip(ctx)
		log.Info("Webhook skipped by cooldown", zap.String("cooldown_key", key))
		return &WebhookResult{Success: true, Message: MsgCooldownSkipped}
	}

	product, variation, err := s.findLocalItem(ctx, store.ID, target)
	if err != nil {
		log.Warn("Webhook item not found locally",
			zap.Int64("remote_id", target.RemoteID()),
			zap.String("kind", string(target.Kind())),
			zap.Error(err),
		)
		return &WebhookResult{Success: false, Message: MsgProductNotFound}
	}
	entry.ResolveProduct(product.ID)

	now := s.clock.Now()
	if err := s.applyInbound(ctx, product, variation, data, now); err != nil {
		log.Error("Failed to apply webhook locally", zap.String("product_id", product.ID.String()), zap.Error(err))
		return &WebhookResult{Success: false, Message: "local update failed: " + err.Error()}
	}

	if stockChange {
		if err := s.cooldown.RecordApplied(ctx, key, now, s.config.CooldownWindow); err != nil {
			log.Warn("Failed to record cooldown", zap.String("cooldown_key", key), zap.Error(err))
		}
	}
	if err := s.storeRepo.UpdateLastSyncAt(ctx, store.ID, now); err != nil {
		log.Warn("Failed to update store last sync", zap.Error(err))
	}

	if !stockChange {
		return &WebhookResult{Success: true, Message: "purchase price updated"}
	}

	synced, reason := s.propagate(ctx, log, store, product, variation, *data.StockQuantity)
	return &WebhookResult{Success: true, Synced: synced, Message: reason}
}

func (s *StockSyncService) resolveStore(ctx context.Context, rawURL string) (*catalog.Store, error) {
	host := catalog.StoreHost(rawURL)
	if host == "" {
		return nil, integration.ErrStoreNotFound
	}
	candidates, err := s.storeRepo.FindByHost(ctx, host)
	if err != nil {
		return nil, err
	}
	store, ok := catalog.ResolveStore(candidates, rawURL)
	if !ok {
		return nil, integration.ErrStoreNotFound
	}
	return store, nil
}

// inCooldown fails open: a broken cooldown store must not block stock updates
func (s *StockSyncService) inCooldown(ctx context.Context, log *logger.ContextLogger, key string) bool {
	last, ok, err := s.cooldown.LastApplied(ctx, key)
	if err != nil {
		log.Warn("Cooldown lookup failed", zap.String("cooldown_key", key), zap.Error(err))
		return false
	}
	return ok && s.clock.Now().Sub(last) < s.config.CooldownWindow
}

func (s *StockSyncService) findLocalItem(ctx context.Context, storeID uuid.UUID, target integration.StockTarget) (*catalog.Product, *catalog.ProductVariation, error) {
	if target.IsVariation() {
		product, err := s.productRepo.FindByVariationRemoteID(ctx, storeID, target.VariationID)
		if err != nil {
			return nil, nil, err
		}
		v := product.VariationByRemoteID(target.VariationID)
		if v == nil {
			return nil, nil, shared.ErrNotFound
		}
		return product, v, nil
	}
	product, err := s.productRepo.FindByRemoteID(ctx, storeID, target.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return product, nil, nil
}

func (s *StockSyncService) applyInbound(ctx context.Context, product *catalog.Product, variation *catalog.ProductVariation, data WebhookData, now time.Time) error {
	if variation == nil {
		if data.StockQuantity != nil {
			product.ApplyStock(*data.StockQuantity, now)
		}
		if data.PurchasePrice != nil {
			if err := product.ApplyPurchasePrice(*data.PurchasePrice, now); err != nil {
				return err
			}
		}
		return s.productRepo.SaveStock(ctx, product)
	}

	if data.StockQuantity != nil {
		if _, err := product.ApplyVariationStock(variation.ID, *data.StockQuantity, now); err != nil {
			return err
		}
	}
	if data.PurchasePrice != nil {
		if _, err := product.ApplyVariationPurchasePrice(variation.ID, *data.PurchasePrice, now); err != nil {
			return err
		}
	}
	return s.productRepo.SaveVariationStock(ctx, product, variation)
}

// ---------------------------------------------------------------------------
// Propagation
// ---------------------------------------------------------------------------

// propagate pushes quantity to every sibling of a source item and returns the
// number of siblings updated plus a summary. Non-source items never fan out.
func (s *StockSyncService) propagate(
	ctx context.Context,
	log *logger.ContextLogger,
	origin *catalog.Store,
	product *catalog.Product,
	variation *catalog.ProductVariation,
	quantity int,
) (int, string) {
	mapping, err := s.mappingRepo.FindByProductID(ctx, product.ID)
	if err != nil {
		if !errors.Is(err, integration.ErrMappingNotFound) {
			log.Error("Failed to load mapping for propagation", zap.Error(err))
			return 0, "applied locally; mapping lookup failed"
		}
		return 0, "applied locally; product not mapped"
	}
	if !mapping.IsSourceProduct(product.ID) {
		s.metrics.RecordPropagation(ctx, OutcomeSkipped)
		return 0, "applied locally; not the source item"
	}

	siblings := mapping.Siblings(origin.ID)
	if len(siblings) == 0 {
		return 0, "applied locally; no siblings"
	}

	ids := make([]uuid.UUID, len(siblings))
	for i, item := range siblings {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		log.Error("Failed to load sibling products", zap.Error(err))
		return 0, "applied locally; sibling lookup failed"
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	stores := make(map[uuid.UUID]*catalog.Store)
	synced, failed, skipped := 0, 0, 0
	for _, item := range siblings {
		ilog := log.With(zap.String("mapping_id", mapping.ID.String()), zap.String("sibling_product_id", item.ProductID.String()))

		store, err := s.siblingStore(ctx, stores, item.StoreID)
		if err != nil {
			ilog.Warn("Sibling store not found", zap.Error(err))
			skipped++
			continue
		}
		if !store.HasSyncCredentials() {
			ilog.Debug("Sibling store has no connector credentials", zap.String("store_id", store.ID.String()))
			skipped++
			continue
		}
		sibling, ok := byID[item.ProductID]
		if !ok {
			ilog.Warn("Sibling product missing")
			skipped++
			continue
		}

		var siblingVariationID *uuid.UUID
		if variation != nil {
			sv := sibling.VariationBySKU(variation.SKU)
			if sv == nil {
				ilog.Warn("No sibling variation with matching SKU", zap.String("sku", variation.SKU))
				skipped++
				continue
			}
			siblingVariationID = &sv.ID
		}

		res := s.UpdateRemoteStock(ctx, store, sibling, siblingVariationID, quantity)
		if res.Success {
			synced++
			s.metrics.RecordPropagation(ctx, OutcomeSuccess)
		} else {
			failed++
			s.metrics.RecordPropagation(ctx, OutcomeFailed)
		}
	}

	log.Info("Stock propagated",
		zap.String("mapping_id", mapping.ID.String()),
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
	return synced, fmt.Sprintf("propagated to %d of %d siblings (%d failed, %d skipped)", synced, len(siblings), failed, skipped)
}

func (s *StockSyncService) siblingStore(ctx context.Context, cache map[uuid.UUID]*catalog.Store, id uuid.UUID) (*catalog.Store, error) {
	if st, ok := cache[id]; ok {
		return st, nil
	}
	st, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = st
	return st, nil
}

// ---------------------------------------------------------------------------
// Dashboard updates
// ---------------------------------------------------------------------------

// UpdateStockFromDashboard applies a stock edit locally, then pushes it to the
// owning store only. Siblings are not updated here: the owning store's own
// webhook comes back through HandleStockWebhook and propagates from there,
// which keeps each change to a single fan-out.
func (s *StockSyncService) UpdateStockFromDashboard(ctx context.Context, companyID uuid.UUID, req UpdateStockRequest) (*DashboardUpdateResult, error) {
	product, store, err := s.loadOwned(ctx, companyID, req.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if req.VariationID == nil {
		product.ApplyStock(req.Quantity, now)
		err = s.productRepo.SaveStock(ctx, product)
	} else {
		var v *catalog.ProductVariation
		v, err = product.ApplyVariationStock(*req.VariationID, req.Quantity, now)
		if err != nil {
			return nil, integration.ErrProductNotFound
		}
		err = s.productRepo.SaveVariationStock(ctx, product, v)
	}
	if err != nil {
		return nil, err
	}

	return s.dashboardRemote(req.SkipRemote, store, func() *OutboundResult {
		return s.UpdateRemoteStock(ctx, store, product, req.VariationID, req.Quantity)
	}), nil
}

// UpdatePurchasePriceFromDashboard applies a purchase price edit locally, then
// pushes it to the owning store
func (s *StockSyncService) UpdatePurchasePriceFromDashboard(ctx context.Context, companyID uuid.UUID, req UpdatePurchasePriceRequest) (*DashboardUpdateResult, error) {
	product, store, err := s.loadOwned(ctx, companyID, req.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if req.VariationID == nil {
		if err := product.ApplyPurchasePrice(req.Price, now); err != nil {
			return nil, err
		}
		err = s.productRepo.SaveStock(ctx, product)
	} else {
		var v *catalog.ProductVariation
		v, err = product.ApplyVariationPurchasePrice(*req.VariationID, req.Price, now)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, integration.ErrProductNotFound
			}
			return nil, err
		}
		err = s.productRepo.SaveVariationStock(ctx, product, v)
	}
	if err != nil {
		return nil, err
	}

	return s.dashboardRemote(req.SkipRemote, store, func() *OutboundResult {
		return s.UpdateRemotePurchasePrice(ctx, store, product, req.VariationID, req.Price)
	}), nil
}

func (s *StockSyncService) loadOwned(ctx context.Context, companyID, productID uuid.UUID) (*catalog.Product, *catalog.Store, error) {
	product, err := s.productRepo.FindByIDForCompany(ctx, companyID, productID)
	if err != nil {
		return nil, nil, err
	}
	store, err := s.storeRepo.FindByID(ctx, product.StoreID)
	if err != nil {
		return nil, nil, err
	}
	return product, store, nil
}

func (s *StockSyncService) dashboardRemote(skip bool, store *catalog.Store, push func() *OutboundResult) *DashboardUpdateResult {
	if skip {
		return &DashboardUpdateResult{LocalUpdated: true, Message: "updated locally; remote sync skipped"}
	}
	if !store.HasSyncCredentials() {
		return &DashboardUpdateResult{LocalUpdated: true, Message: "updated locally; store has no sync credentials"}
	}
	res := push()
	return &DashboardUpdateResult{LocalUpdated: true, RemoteSynced: res.Success, Message: res.Message}
}

// ---------------------------------------------------------------------------
// Outbound writes
// ---------------------------------------------------------------------------

type outboundPayload struct {
	ProductID     int64            `json:"product_id,omitempty"`
	VariationID   int64            `json:"variation_id,omitempty"`
	Quantity      *int             `json:"quantity,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

// UpdateRemoteStock writes a quantity to one remote item and mirrors the
// confirmed value locally. Failures are logged and reported in the result.
func (s *StockSyncService) UpdateRemoteStock(ctx context.Context, store *catalog.Store, product *catalog.Product, variationID *uuid.UUID, quantity int) *OutboundResult {
	target, variation, err := remoteTarget(product, variationID)
	if err != nil {
		return &OutboundResult{Success: false, Message: err.Error()}
	}
	payload := outboundPayload{ProductID: target.ProductID, VariationID: target.VariationID, Quantity: &quantity}

	return s.outbound(ctx, store, product, integration.EventStockPush, payload, "update_stock", func(c integration.StockConnector) error {
		confirmed, err := c.UpdateStock(ctx, target, quantity)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if variation == nil {
			product.ApplyStock(confirmed, now)
			return s.productRepo.SaveStock(ctx, product)
		}
		v, err := product.ApplyVariationStock(variation.ID, confirmed, now)
		if err != nil {
			return err
		}
		return s.productRepo.SaveVariationStock(ctx, product, v)
	})
}

// UpdateRemotePurchasePrice writes a purchase price to one remote item and
// mirrors the confirmed value locally
func (s *StockSyncService) UpdateRemotePurchasePrice(ctx context.Context, store *catalog.Store, product *catalog.Product, variationID *uuid.UUID, price decimal.Decimal) *OutboundResult {
	target, variation, err := remoteTarget(product, variationID)
	if err != nil {
		return &OutboundResult{Success: false, Message: err.Error()}
	}
	payload := outboundPayload{ProductID: target.ProductID, VariationID: target.VariationID, PurchasePrice: &price}

	return s.outbound(ctx, store, product, integration.EventPurchasePricePush, payload, "update_purchase_price", func(c integration.StockConnector) error {
		confirmed, err := c.UpdatePurchasePrice(ctx, target, price)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if variation == nil {
			if err := product.ApplyPurchasePrice(confirmed, now); err != nil {
				return err
			}
			return s.productRepo.SaveStock(ctx, product)
		}
		v, err := product.ApplyVariationPurchasePrice(variation.ID, confirmed, now)
		if err != nil {
			return err
		}
		return s.productRepo.SaveVariationStock(ctx, product, v)
	})
}

// outbound wraps one remote call with credential decryption, an audit row
// and metrics. It never returns an error.
func (s *StockSyncService) outbound(
	ctx context.Context,
	store *catalog.Store,
	product *catalog.Product,
	eventType string,
	payload outboundPayload,
	operation string,
	call func(integration.StockConnector) error,
) *OutboundResult {
	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("store_id", store.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("operation", operation),
	)

	raw, _ := json.Marshal(payload)
	entry := integration.NewWebhookLog(store.ID, eventType, integration.WebhookDirectionOutbound, raw, s.clock.Now())
	entry.ResolveProduct(product.ID)
	if err := s.logRepo.Create(ctx, entry); err != nil {
		log.Error("Failed to record outbound attempt", zap.Error(err))
	}

	start := time.Now()
	err := s.callConnector(store, call)
	elapsed := time.Since(start)

	if err != nil {
		_ = entry.MarkFailed(err.Error(), s.clock.Now())
		log.Warn("Outbound store update failed", zap.Error(err), zap.Duration("duration", elapsed))
		s.metrics.RecordOutbound(ctx, operation, OutcomeFailed, elapsed)
	} else {
		_ = entry.MarkSuccess("ok", s.clock.Now())
		s.metrics.RecordOutbound(ctx, operation, OutcomeSuccess, elapsed)
	}
	if uerr := s.logRepo.UpdateStatus(ctx, entry); uerr != nil {
		log.Error("Failed to finalize outbound log", zap.Error(uerr))
	}

	if err != nil {
		return &OutboundResult{Success: false, Message: err.Error()}
	}
	return &OutboundResult{Success: true, Message: "remote store updated"}
}

func (s *StockSyncService) callConnector(store *catalog.Store, call func(integration.StockConnector) error) error {
	connector, err := s.connectors.ConnectorFor(store)
	if err != nil {
		return err
	}
	return call(connector)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func remoteTarget(product *catalog.Product, variationID *uuid.UUID) (integration.StockTarget, *catalog.ProductVariation, error) {
	target := integration.StockTarget{ProductID: product.RemoteID}
	if variationID == nil {
		return target, nil, nil
	}
	v := product.VariationByID(*variationID)
	if v == nil {
		return target, nil, integration.ErrProductNotFound
	}
	target.VariationID = v.RemoteID
	return target, v, nil
}

func webhookTarget(data WebhookData) (integration.StockTarget, bool) {
	var t integration.StockTarget
	if data.ProductID != nil {
		t.ProductID = *data.ProductID
	}
	if data.VariationID != nil {
		t.VariationID = *data.VariationID
	}
	return t, t.ProductID > 0 || t.VariationID > 0
}

func eventType(event WebhookEvent) string {
	if event.Event == "" {
		return integration.EventStockUpdated
	}
	return event.Event
}
