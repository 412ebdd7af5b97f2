package dto

import (
	"net/http"

	"github.com/erp/settlement/internal/domain/allocation"
)

// Error codes emitted by the HTTP layer itself
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable  = "ERR_SERVICE_UNAVAILABLE"
)

// Domain error codes that reach the HTTP layer unchanged.
// Allocation rejections are business rule violations and map to 422.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,

	// shared
	"NOT_FOUND":            http.StatusNotFound,
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// allocation
	allocation.CodeSessionNotFound:     http.StatusNotFound,
	allocation.CodeLimitRequired:       http.StatusUnprocessableEntity,
	allocation.CodePlacementRequired:   http.StatusUnprocessableEntity,
	allocation.CodeNoRemainingCapacity: http.StatusUnprocessableEntity,
	allocation.CodeReadOnlySession:     http.StatusUnprocessableEntity,
	allocation.CodeLineNotFound:        http.StatusUnprocessableEntity,
	allocation.CodeDuplicateLine:       http.StatusUnprocessableEntity,
	allocation.CodeInvalidAmount:       http.StatusUnprocessableEntity,
	allocation.CodeInvalidEvent:        http.StatusBadRequest,
	allocation.CodeKindNotAccepted:     http.StatusUnprocessableEntity,
	allocation.CodeDocumentNotFound:    http.StatusNotFound,
	allocation.CodeForeignDocument:     http.StatusUnprocessableEntity,
	"INVALID_KIND":                     http.StatusBadRequest,
	"INVALID_MODE":                     http.StatusBadRequest,
	"INVALID_REFERENCE":                http.StatusBadRequest,
	"INVALID_APPLICATION_TYPE":         http.StatusBadRequest,
	"INVALID_APPLICATION":              http.StatusBadRequest,
	"APPLICATION_TYPE_MISMATCH":        http.StatusConflict,
	"BALANCE_EXCEEDED":                 http.StatusConflict,
}

// GetHTTPStatus returns the status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
