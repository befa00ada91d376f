package catalog

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/shared"
)

// Store represents one remote catalog endpoint owned by a company.
// Credential fields hold ciphertext; they are decrypted only when a gateway
// client is built for the store.
type Store struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	Name      string
	// URL is the normalized base URL of the store
	URL string

	// Commerce REST API credentials (encrypted)
	ConsumerKey    string
	ConsumerSecret string

	// Stock-connector credentials (encrypted). SyncEnabled marks the
	// connector plugin as installed on the remote store.
	SyncEnabled   bool
	SyncAPIKey    string
	SyncAPISecret string

	LastSyncAt *time.Time
}

// NewStore creates a new store with a normalized URL
func NewStore(companyID uuid.UUID, name, rawURL string) (*Store, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_STORE_NAME", "Store name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_STORE_NAME", "Store name cannot exceed 200 characters")
	}
	normalized := NormalizeStoreURL(rawURL)
	if normalized == "" || StoreHost(normalized) == "" {
		return nil, shared.NewDomainError("INVALID_STORE_URL", "Store URL must be an absolute http(s) URL")
	}

	return &Store{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Name:       name,
		URL:        normalized,
	}, nil
}

// SetCommerceCredentials stores encrypted REST API credentials
func (s *Store) SetCommerceCredentials(encryptedKey, encryptedSecret string) {
	s.ConsumerKey = encryptedKey
	s.ConsumerSecret = encryptedSecret
	s.Touch(time.Now())
}

// SetSyncCredentials stores encrypted connector credentials and enables the
// connector when both halves are present
func (s *Store) SetSyncCredentials(encryptedKey, encryptedSecret string) {
	s.SyncAPIKey = encryptedKey
	s.SyncAPISecret = encryptedSecret
	s.SyncEnabled = encryptedKey != "" && encryptedSecret != ""
	s.Touch(time.Now())
}

// HasSyncCredentials reports whether the stock connector can be used
func (s *Store) HasSyncCredentials() bool {
	return s.SyncEnabled && s.SyncAPIKey != "" && s.SyncAPISecret != ""
}

// HasCommerceCredentials reports whether the REST catalog API can be used
func (s *Store) HasCommerceCredentials() bool {
	return s.ConsumerKey != "" && s.ConsumerSecret != ""
}

// MarkSynced records a successful synchronization
func (s *Store) MarkSynced(at time.Time) {
	s.LastSyncAt = &at
	s.Touch(at)
}

// Host returns the lowercased hostname of the store
func (s *Store) Host() string {
	return StoreHost(s.URL)
}

// NormalizeStoreURL lowercases scheme and host, drops query, fragment and
// trailing slashes. Missing schemes default to https. Returns "" when the
// input cannot be parsed.
func NormalizeStoreURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	return scheme + "://" + strings.ToLower(u.Host) + path
}

// StoreHost extracts the lowercased hostname (without port) of a URL
func StoreHost(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// URLMatch describes how well a URL matched a store
type URLMatch int

const (
	URLMatchNone URLMatch = iota
	URLMatchHost
	URLMatchExact
)

// MatchURL compares a declared origin URL against the store URL. Exact
// matches ignore trailing slashes and scheme/host case; host matches accept
// either hostname containing the other.
func (s *Store) MatchURL(raw string) URLMatch {
	normalized := NormalizeStoreURL(raw)
	if normalized == "" {
		return URLMatchNone
	}
	if normalized == s.URL {
		return URLMatchExact
	}
	candidate := StoreHost(normalized)
	own := s.Host()
	if candidate == "" || own == "" {
		return URLMatchNone
	}
	if strings.Contains(candidate, own) || strings.Contains(own, candidate) {
		return URLMatchHost
	}
	return URLMatchNone
}

// ResolveStore picks the best store for a declared origin URL. Exact matches
// win over host matches; among equal matches the first store wins.
func ResolveStore(stores []Store, raw string) (*Store, bool) {
	var best *Store
	bestMatch := URLMatchNone
	for i := range stores {
		m := stores[i].MatchURL(raw)
		if m > bestMatch {
			best = &stores[i]
			bestMatch = m
			if m == URLMatchExact {
				break
			}
		}
	}
	return best, best != nil
}
