package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
)

// StoreService handles store onboarding and credential rotation
type StoreService struct {
	storeRepo catalog.StoreRepository
	cipher    catalog.CredentialCipher
	logger    *zap.Logger
}

// NewStoreService creates a new StoreService
func NewStoreService(storeRepo catalog.StoreRepository, cipher catalog.CredentialCipher, logger *zap.Logger) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{storeRepo: storeRepo, cipher: cipher, logger: logger}
}

// Register creates a store and encrypts whatever credentials were supplied
func (s *StoreService) Register(ctx context.Context, companyID uuid.UUID, req RegisterStoreRequest) (*StoreResponse, error) {
	store, err := catalog.NewStore(companyID, req.Name, req.URL)
	if err != nil {
		return nil, err
	}

	if err := s.applyCommerce(store, req.ConsumerKey, req.ConsumerSecret); err != nil {
		return nil, err
	}
	if err := s.applySync(store, req.SyncAPIKey, req.SyncAPISecret); err != nil {
		return nil, err
	}

	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, err
	}

	s.logger.Info("Store registered",
		zap.String("company_id", companyID.String()),
		zap.String("store_id", store.ID.String()),
		zap.String("url", store.URL),
		zap.Bool("sync_enabled", store.SyncEnabled),
	)
	return toStoreResponse(store), nil
}

// List returns the company's stores
func (s *StoreService) List(ctx context.Context, companyID uuid.UUID) ([]StoreResponse, error) {
	stores, err := s.storeRepo.FindAllForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]StoreResponse, len(stores))
	for i := range stores {
		out[i] = *toStoreResponse(&stores[i])
	}
	return out, nil
}

// Get returns one store of the company
func (s *StoreService) Get(ctx context.Context, companyID, id uuid.UUID) (*StoreResponse, error) {
	store, err := s.storeRepo.FindByIDForCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// RotateCredentials replaces the credential pairs present in the request.
// An explicit empty pair clears it.
func (s *StoreService) RotateCredentials(ctx context.Context, companyID, id uuid.UUID, req RotateCredentialsRequest) (*StoreResponse, error) {
	store, err := s.storeRepo.FindByIDForCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.ConsumerKey != nil || req.ConsumerSecret != nil {
		if err := s.applyCommerce(store, deref(req.ConsumerKey), deref(req.ConsumerSecret)); err != nil {
			return nil, err
		}
	}
	if req.SyncAPIKey != nil || req.SyncAPISecret != nil {
		if err := s.applySync(store, deref(req.SyncAPIKey), deref(req.SyncAPISecret)); err != nil {
			return nil, err
		}
	}

	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, err
	}
	s.logger.Info("Store credentials rotated", zap.String("store_id", store.ID.String()))
	return toStoreResponse(store), nil
}

// Delete removes a store with its products and mapping items
func (s *StoreService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	if _, err := s.storeRepo.FindByIDForCompany(ctx, companyID, id); err != nil {
		return err
	}
	return s.storeRepo.DeleteForCompany(ctx, companyID, id)
}

func (s *StoreService) applyCommerce(store *catalog.Store, key, secret string) error {
	encKey, encSecret, err := s.encryptPair(key, secret)
	if err != nil {
		return err
	}
	store.SetCommerceCredentials(encKey, encSecret)
	return nil
}

func (s *StoreService) applySync(store *catalog.Store, key, secret string) error {
	encKey, encSecret, err := s.encryptPair(key, secret)
	if err != nil {
		return err
	}
	store.SetSyncCredentials(encKey, encSecret)
	return nil
}

// encryptPair requires both halves or neither
func (s *StoreService) encryptPair(key, secret string) (string, string, error) {
	if key == "" && secret == "" {
		return "", "", nil
	}
	if key == "" || secret == "" {
		return "", "", integration.ErrIncompleteCredentials
	}
	encKey, err := s.cipher.Encrypt(key)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt credential: %w", err)
	}
	encSecret, err := s.cipher.Encrypt(secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt credential: %w", err)
	}
	return encKey, encSecret, nil
}

func toStoreResponse(store *catalog.Store) *StoreResponse {
	return &StoreResponse{
		ID:                     store.ID,
		Name:                   store.Name,
		URL:                    store.URL,
		HasCommerceCredentials: store.HasCommerceCredentials(),
		SyncEnabled:            store.HasSyncCredentials(),
		LastSyncAt:             store.LastSyncAt,
		CreatedAt:              store.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
