package ecommerce

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/stocksync/backend/internal/domain/catalog"
	"github.com/stocksync/backend/internal/domain/integration"
)

// GatewayConfig holds outbound client settings
type GatewayConfig struct {
	// Timeout bounds every outbound request
	Timeout time.Duration
	// Namespace is the connector plugin's REST namespace
	Namespace string
	// RateLimitPerSecond throttles requests per store; zero disables throttling
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// DefaultGatewayConfig returns the default outbound settings
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Timeout:            30 * time.Second,
		Namespace:          "stock-sync",
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,
	}
}

// GatewayFactory builds connector and catalog clients for stores. Stored
// credentials are decrypted on every call; the per-store rate limiter is
// shared by all clients of the same store.
type GatewayFactory struct {
	cfg        GatewayConfig
	cipher     catalog.CredentialCipher
	httpClient *http.Client

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

// NewGatewayFactory creates a factory. A nil httpClient gets a traced client
// bounded by cfg.Timeout.
func NewGatewayFactory(cfg GatewayConfig, cipher catalog.CredentialCipher, httpClient *http.Client) *GatewayFactory {
	defaults := DefaultGatewayConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaults.Namespace
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaults.RateLimitBurst
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &GatewayFactory{
		cfg:        cfg,
		cipher:     cipher,
		httpClient: httpClient,
		limiters:   make(map[uuid.UUID]*rate.Limiter),
	}
}

func (f *GatewayFactory) limiterFor(storeID uuid.UUID) *rate.Limiter {
	if f.cfg.RateLimitPerSecond <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[storeID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.cfg.RateLimitPerSecond), f.cfg.RateLimitBurst)
		f.limiters[storeID] = l
	}
	return l
}

func (f *GatewayFactory) decryptPair(encKey, encSecret string) (string, string, error) {
	key, err := f.cipher.Decrypt(encKey)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", integration.ErrCredentialDecrypt, err)
	}
	secret, err := f.cipher.Decrypt(encSecret)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", integration.ErrCredentialDecrypt, err)
	}
	return key, secret, nil
}

// ConnectorFor builds a stock connector client for the store
func (f *GatewayFactory) ConnectorFor(store *catalog.Store) (integration.StockConnector, error) {
	if !store.HasSyncCredentials() {
		return nil, integration.ErrSyncCredentialsMissing
	}
	key, secret, err := f.decryptPair(store.SyncAPIKey, store.SyncAPISecret)
	if err != nil {
		return nil, err
	}
	return &ConnectorClient{
		namespace: f.cfg.Namespace,
		transport: &httpTransport{
			baseURL:    store.URL,
			httpClient: f.httpClient,
			limiter:    f.limiterFor(store.ID),
			auth: func(req *http.Request) {
				req.Header.Set("X-API-Key", key)
				req.Header.Set("X-API-Secret", secret)
			},
		},
	}, nil
}

// CatalogClientFor builds a commerce REST client for the store
func (f *GatewayFactory) CatalogClientFor(store *catalog.Store) (integration.CatalogClient, error) {
	if !store.HasCommerceCredentials() {
		return nil, integration.ErrCommerceCredsMissing
	}
	key, secret, err := f.decryptPair(store.ConsumerKey, store.ConsumerSecret)
	if err != nil {
		return nil, err
	}
	return &CommerceClient{
		transport: &httpTransport{
			baseURL:    store.URL,
			httpClient: f.httpClient,
			limiter:    f.limiterFor(store.ID),
			auth: func(req *http.Request) {
				req.SetBasicAuth(key, secret)
			},
		},
	}, nil
}

var (
	_ integration.StockConnectorFactory = (*GatewayFactory)(nil)
	_ integration.CatalogClientFactory  = (*GatewayFactory)(nil)
)
