package integration

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
)

const (
	defaultCandidateLimit = 20
	maxCandidateLimit     = 100
)

// MatchingService derives mapping suggestions from unmapped products
type MatchingService struct {
	productRepo   catalog.ProductRepository
	storeRepo     catalog.StoreRepository
	dismissedRepo integration.DismissedSuggestionRepository
	mappings      *ProductMappingService
	chain         integration.GroupKeyChain
	logger        *zap.Logger
}

// MatchingOption configures a MatchingService
type MatchingOption func(*MatchingService)

// WithGroupKeyChain replaces the default group key rules
func WithGroupKeyChain(chain integration.GroupKeyChain) MatchingOption {
	return func(s *MatchingService) {
		s.chain = chain
	}
}

// WithMatchingLogger sets the logger
func WithMatchingLogger(logger *zap.Logger) MatchingOption {
	return func(s *MatchingService) {
		s.logger = logger
	}
}

// NewMatchingService creates a new MatchingService
func NewMatchingService(
	productRepo catalog.ProductRepository,
	storeRepo catalog.StoreRepository,
	dismissedRepo integration.DismissedSuggestionRepository,
	mappings *ProductMappingService,
	opts ...MatchingOption,
) *MatchingService {
	s := &MatchingService{
		productRepo:   productRepo,
		storeRepo:     storeRepo,
		dismissedRepo: dismissedRepo,
		mappings:      mappings,
		chain:         integration.DefaultGroupKeyChain(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSuggestions returns candidate mappings ranked by store count
func (s *MatchingService) GetSuggestions(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) ([]SuggestionResponse, error) {
	suggestions, err := s.suggestions(ctx, companyID, storeID)
	if err != nil {
		return nil, err
	}
	names, err := s.storeNames(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := make([]SuggestionResponse, len(suggestions))
	for i := range suggestions {
		sg := &suggestions[i]
		resp := SuggestionResponse{
			Key:        sg.Key.String(),
			MatchType:  sg.Key.Kind,
			MasterSKU:  sg.MasterSKU(),
			Name:       sg.Name(),
			Products:   make([]SuggestionProductResponse, len(sg.Products)),
			StoreCount: sg.StoreCount,
			TotalStock: sg.TotalStock,
			RealStock:  sg.RealStock,
		}
		for j, p := range sg.Products {
			resp.Products[j] = SuggestionProductResponse{
				ProductID:     p.ProductID,
				StoreID:       p.StoreID,
				StoreName:     names[p.StoreID],
				Name:          p.Name,
				SKU:           p.SKU,
				StockQuantity: p.EffectiveStock,
			}
		}
		out[i] = resp
	}
	return out, nil
}

// Dismiss hides a suggestion key until restored. Repeated calls are no-ops.
func (s *MatchingService) Dismiss(ctx context.Context, companyID uuid.UUID, key string) error {
	parsed, err := integration.ParseGroupKey(key)
	if err != nil {
		return err
	}
	return s.dismissedRepo.Dismiss(ctx, companyID, parsed.String())
}

// Restore shows a dismissed suggestion key again. Unknown keys are no-ops.
func (s *MatchingService) Restore(ctx context.Context, companyID uuid.UUID, key string) error {
	parsed, err := integration.ParseGroupKey(key)
	if err != nil {
		return err
	}
	return s.dismissedRepo.Restore(ctx, companyID, parsed.String())
}

// AutoMatch turns every current suggestion into a mapping. Failures for
// individual suggestions are counted as skipped and never abort the batch.
func (s *MatchingService) AutoMatch(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) (*AutoMatchResult, error) {
	suggestions, err := s.suggestions(ctx, companyID, storeID)
	if err != nil {
		return nil, err
	}

	result := &AutoMatchResult{}
	for i := range suggestions {
		sg := &suggestions[i]
		if _, err := s.mappings.create(ctx, companyID, sg.MasterSKU(), sg.Name(), memberProductIDs(sg)); err != nil {
			result.Skipped++
			s.logger.Debug("Auto-match skipped suggestion",
				zap.String("company_id", companyID.String()),
				zap.String("key", sg.Key.String()),
				zap.Error(err),
			)
			continue
		}
		result.Created++
	}

	s.logger.Info("Auto-match finished",
		zap.String("company_id", companyID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// SearchCandidates finds unmapped products by name or SKU for manual mapping
func (s *MatchingService) SearchCandidates(ctx context.Context, companyID uuid.UUID, req SearchCandidatesRequest) ([]CandidateResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	if limit > maxCandidateLimit {
		limit = maxCandidateLimit
	}

	products, err := s.productRepo.FindUnmappedForCompany(ctx, companyID, catalog.ProductFilter{
		StoreID: req.StoreID,
		Search:  strings.TrimSpace(req.Query),
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	names, err := s.storeNames(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := make([]CandidateResponse, 0, len(products))
	for i := range products {
		p := &products[i]
		out = append(out, CandidateResponse{
			ProductID:     p.ID,
			StoreID:       p.StoreID,
			StoreName:     names[p.StoreID],
			Name:          p.Name,
			SKU:           p.SKU,
			StockQuantity: p.EffectiveStock(),
		})
	}
	return out, nil
}

func (s *MatchingService) suggestions(ctx context.Context, companyID uuid.UUID, storeID *uuid.UUID) ([]integration.Suggestion, error) {
	products, err := s.productRepo.FindUnmappedForCompany(ctx, companyID, catalog.ProductFilter{})
	if err != nil {
		return nil, err
	}
	dismissed, err := s.dismissedRepo.Keys(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return integration.BuildSuggestions(products, integration.SuggestionOptions{
		Dismissed: dismissed,
		StoreID:   storeID,
		Chain:     s.chain,
	}), nil
}

func (s *MatchingService) storeNames(ctx context.Context, companyID uuid.UUID) (map[uuid.UUID]string, error) {
	stores, err := s.storeRepo.FindAllForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(stores))
	for _, st := range stores {
		names[st.ID] = st.Name
	}
	return names, nil
}

func memberProductIDs(sg *integration.Suggestion) []uuid.UUID {
	members := sg.Members()
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ProductID
	}
	return ids
}
