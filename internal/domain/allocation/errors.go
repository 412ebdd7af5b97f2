package allocation

import "github.com/erp/settlement/internal/domain/shared"

// Error codes returned by allocation transitions
const (
	CodeLimitRequired       = "LIMIT_REQUIRED"
	CodePlacementRequired   = "PLACEMENT_REQUIRED"
	CodeNoRemainingCapacity = "NO_REMAINING_CAPACITY"
	CodeReadOnlySession     = "READ_ONLY_SESSION"
	CodeLineNotFound        = "LINE_NOT_FOUND"
	CodeDuplicateLine       = "DUPLICATE_LINE"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidEvent        = "INVALID_EVENT"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeKindNotAccepted     = "KIND_NOT_ACCEPTED"
	CodeDocumentNotFound    = "DOCUMENT_NOT_FOUND"
	CodeForeignDocument     = "FOREIGN_DOCUMENT"
)

var (
	ErrLimitRequired       = shared.NewDomainError(CodeLimitRequired, "Enter a payment amount before selecting lines")
	ErrCreditLimitRequired = shared.NewDomainError(CodeLimitRequired, "Enter a credit amount before selecting lines")
	ErrPlacementRequired   = shared.NewDomainError(CodePlacementRequired, "Select a counterparty and location first")
	ErrNoRemainingCapacity = shared.NewDomainError(CodeNoRemainingCapacity, "No unapplied amount left to allocate")
	ErrReadOnlySession     = shared.NewDomainError(CodeReadOnlySession, "Allocation session is read-only")
	ErrLineNotFound        = shared.NewDomainError(CodeLineNotFound, "Line not found in allocation session")
	ErrDuplicateLine       = shared.NewDomainError(CodeDuplicateLine, "Line is already part of the allocation session")
	ErrInvalidAmount       = shared.NewDomainError(CodeInvalidAmount, "Amount must not be negative")
	ErrInvalidEvent        = shared.NewDomainError(CodeInvalidEvent, "Unknown allocation event")
	ErrSessionNotFound     = shared.NewDomainError(CodeSessionNotFound, "Allocation session not found")
	ErrKindNotAccepted     = shared.NewDomainError(CodeKindNotAccepted, "Document kind cannot receive this application")
	ErrDocumentNotFound    = shared.NewDomainError(CodeDocumentNotFound, "Document not found")
	ErrForeignDocument     = shared.NewDomainError(CodeForeignDocument, "Document belongs to another counterparty or location")
)
