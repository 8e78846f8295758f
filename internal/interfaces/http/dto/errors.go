package dto

import "net/http"

// API error codes. Domain codes are translated by NormalizeErrorCode.
const (
	ErrCodeInternal      = "ERR_INTERNAL"
	ErrCodeDataIntegrity = "ERR_DATA_INTEGRITY"

	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput     = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON      = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge  = "ERR_REQUEST_TOO_LARGE"

	// ErrCodeUnauthorized means X-User-ID is missing or names no known user
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	// ErrCodeRoleMismatch means the approver does not hold the current step's role
	ErrCodeRoleMismatch = "ERR_ROLE_MISMATCH"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeBusinessRule      = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeConfigurationMissing means no approval chain exists for the document type
	ErrCodeConfigurationMissing = "ERR_CONFIGURATION_MISSING"
	ErrCodeEvaluationFailure    = "ERR_EVALUATION_FAILURE"
)

var statusByCode = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeDataIntegrity: http.StatusInternalServerError,

	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeValidationFormat: http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeRoleMismatch: http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:    http.StatusUnprocessableEntity,
	ErrCodeConfigurationMissing: http.StatusUnprocessableEntity,
	ErrCodeEvaluationFailure:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the status for an API code, 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var apiCodeByDomainCode = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":    ErrCodeInsufficientStock,
	"ROLE_MISMATCH":         ErrCodeRoleMismatch,
	"CONFIGURATION_MISSING": ErrCodeConfigurationMissing,
	"EVALUATION_FAILURE":    ErrCodeEvaluationFailure,
	"DATA_INTEGRITY":        ErrCodeDataIntegrity,

	"INVALID_ORDER_NUMBER":      ErrCodeInvalidInput,
	"INVALID_ADJUSTMENT_NUMBER": ErrCodeInvalidInput,
	"INVALID_SUPPLIER":          ErrCodeInvalidInput,
	"INVALID_PRODUCT":           ErrCodeInvalidInput,
	"INVALID_WAREHOUSE":         ErrCodeInvalidInput,
	"INVALID_QUANTITY":          ErrCodeInvalidInput,
	"INVALID_BOM":               ErrCodeInvalidInput,
	"EMPTY_ORDER":               ErrCodeBusinessRule,
}

// NormalizeErrorCode translates a domain error code to its API code. Codes
// that are already API codes, and unknown codes, come back unchanged.
func NormalizeErrorCode(code string) string {
	if api, ok := apiCodeByDomainCode[code]; ok {
		return api
	}
	return code
}
