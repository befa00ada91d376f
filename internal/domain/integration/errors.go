package integration

import (
	"errors"

	"github.com/stocksync/backend/internal/domain/shared"
)

// Mapping validation errors. These are surfaced to callers as rejected requests.
var (
	ErrMappingNotFound       = shared.NewDomainError("MAPPING_NOT_FOUND", "Product mapping not found")
	ErrMasterSKUExists       = shared.NewDomainError("MASTER_SKU_EXISTS", "A mapping with this master SKU already exists")
	ErrInvalidMasterSKU      = shared.NewDomainError("INVALID_MASTER_SKU", "Master SKU must be 1-100 characters")
	ErrMappingTooFewProducts = shared.NewDomainError("MAPPING_TOO_FEW_PRODUCTS", "A mapping needs at least two products")
	ErrMappingTooFewStores   = shared.NewDomainError("MAPPING_TOO_FEW_STORES", "A mapping needs products from at least two stores")
	ErrProductAlreadyMapped  = shared.NewDomainError("PRODUCT_ALREADY_MAPPED", "Product already belongs to another mapping")
	ErrProductNotFound       = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrStoreNotFound         = shared.NewDomainError("STORE_NOT_FOUND", "Store not found")
	ErrCannotRemoveSource    = shared.NewDomainError("CANNOT_REMOVE_SOURCE", "The source item cannot be removed; delete the mapping instead")
	ErrMappingWouldShrink    = shared.NewDomainError("MAPPING_WOULD_SHRINK", "Removal would leave fewer than two products or stores; delete the mapping instead")
	ErrInvalidSuggestionKey  = shared.NewDomainError("INVALID_SUGGESTION_KEY", "Suggestion key is invalid")
	ErrWebhookLogFinalized   = shared.NewDomainError("WEBHOOK_LOG_FINALIZED", "Webhook log already reached a terminal status")
	ErrIncompleteCredentials = shared.NewDomainError("INCOMPLETE_CREDENTIALS", "Credential key and secret must be provided together")
)

// Webhook boundary errors
var (
	ErrWebhookMalformed        = shared.NewDomainError("INVALID_WEBHOOK_PAYLOAD", "Webhook payload is malformed")
	ErrWebhookStale            = shared.NewDomainError("WEBHOOK_TIMESTAMP_OUT_OF_RANGE", "Webhook timestamp is outside the accepted window")
	ErrWebhookSignatureInvalid = shared.NewDomainError("INVALID_WEBHOOK_SIGNATURE", "Webhook signature is missing or invalid")
)

// Remote store errors returned by gateway adapters
var (
	ErrStoreUnavailable       = errors.New("integration: store temporarily unavailable")
	ErrStoreRequestFailed     = errors.New("integration: store request failed")
	ErrStoreAuthFailed        = errors.New("integration: store authentication failed")
	ErrStoreRateLimited       = errors.New("integration: store rate limited")
	ErrStoreInvalidResponse   = errors.New("integration: invalid store response")
	ErrSyncCredentialsMissing = errors.New("integration: store has no stock connector credentials")
	ErrCommerceCredsMissing   = errors.New("integration: store has no commerce API credentials")
	ErrCredentialDecrypt      = errors.New("integration: store credentials could not be decrypted")
)
