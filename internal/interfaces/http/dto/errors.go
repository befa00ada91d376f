package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for binding and validator failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeMasterSKUExists is returned when a company already has a mapping with the SKU
	ErrCodeMasterSKUExists = "ERR_MASTER_SKU_EXISTS"
	// ErrCodeProductAlreadyMapped is returned when a product belongs to another mapping
	ErrCodeProductAlreadyMapped = "ERR_PRODUCT_ALREADY_MAPPED"
	// ErrCodeMappingTooSmall is returned when a mapping would span fewer than two products or stores
	ErrCodeMappingTooSmall = "ERR_MAPPING_TOO_SMALL"
	// ErrCodeCannotRemoveSource is returned when removing the source item of a mapping
	ErrCodeCannotRemoveSource = "ERR_CANNOT_REMOVE_SOURCE"
)

// Webhook error codes
const (
	ErrCodeWebhookPayload   = "ERR_WEBHOOK_PAYLOAD"
	ErrCodeWebhookStale     = "ERR_WEBHOOK_STALE"
	ErrCodeWebhookSignature = "ERR_WEBHOOK_SIGNATURE"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Upstream store error codes
const (
	// ErrCodeStoreUnavailable is returned when a store API cannot be reached or answers 5xx
	ErrCodeStoreUnavailable = "ERR_STORE_UNAVAILABLE"
	// ErrCodeStoreRejected is returned when a store API refuses the request or answers garbage
	ErrCodeStoreRejected = "ERR_STORE_REJECTED"
	// ErrCodeStoreNotConfigured is returned when a store lacks the credentials an action needs
	ErrCodeStoreNotConfigured = "ERR_STORE_NOT_CONFIGURED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity, uniqueness -> 409
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeMasterSKUExists:      http.StatusConflict,
	ErrCodeProductAlreadyMapped: http.StatusConflict,
	ErrCodeMappingTooSmall:      http.StatusUnprocessableEntity,
	ErrCodeCannotRemoveSource:   http.StatusUnprocessableEntity,

	ErrCodeWebhookPayload:   http.StatusBadRequest,
	ErrCodeWebhookStale:     http.StatusBadRequest,
	ErrCodeWebhookSignature: http.StatusUnauthorized,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeStoreUnavailable:   http.StatusBadGateway,
	ErrCodeStoreRejected:      http.StatusBadGateway,
	ErrCodeStoreNotConfigured: http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":   ErrCodeAlreadyExists,
	"CONFLICT":         ErrCodeConflict,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_STATE":    ErrCodeInvalidState,
	"UNAUTHORIZED":     ErrCodeUnauthorized,
	"FORBIDDEN":        ErrCodeForbidden,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,

	// catalog
	"STORE_NOT_FOUND":      ErrCodeNotFound,
	"PRODUCT_NOT_FOUND":    ErrCodeNotFound,
	"INVALID_COMPANY":      ErrCodeInvalidInput,
	"INVALID_STORE":        ErrCodeInvalidInput,
	"INVALID_STORE_NAME":   ErrCodeInvalidInput,
	"INVALID_STORE_URL":    ErrCodeInvalidInput,
	"INVALID_REMOTE_ID":    ErrCodeInvalidInput,
	"INVALID_PRODUCT_TYPE": ErrCodeInvalidInput,
	"INVALID_PRICE":        ErrCodeInvalidInput,

	// mappings
	"MAPPING_NOT_FOUND":        ErrCodeNotFound,
	"MASTER_SKU_EXISTS":        ErrCodeMasterSKUExists,
	"INVALID_MASTER_SKU":       ErrCodeInvalidInput,
	"MAPPING_TOO_FEW_PRODUCTS": ErrCodeMappingTooSmall,
	"MAPPING_TOO_FEW_STORES":   ErrCodeMappingTooSmall,
	"MAPPING_WOULD_SHRINK":     ErrCodeMappingTooSmall,
	"PRODUCT_ALREADY_MAPPED":   ErrCodeProductAlreadyMapped,
	"CANNOT_REMOVE_SOURCE":     ErrCodeCannotRemoveSource,
	"INVALID_SUGGESTION_KEY":   ErrCodeInvalidInput,
	"INCOMPLETE_CREDENTIALS":   ErrCodeInvalidInput,
	"WEBHOOK_LOG_FINALIZED":    ErrCodeInvalidState,

	// webhook boundary
	"INVALID_WEBHOOK_PAYLOAD":        ErrCodeWebhookPayload,
	"WEBHOOK_TIMESTAMP_OUT_OF_RANGE": ErrCodeWebhookStale,
	"INVALID_WEBHOOK_SIGNATURE":      ErrCodeWebhookSignature,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
