package allocation

import (
	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest opens a CREATE session for a new application
type OpenSessionRequest struct {
	TenantID        uuid.UUID
	ApplicationType allocation.ApplicationType
	CounterpartyID  uuid.UUID
	LocationID      uuid.UUID
	LimitAmount     decimal.Decimal
}

// OpenEditSessionRequest reopens a saved application
type OpenEditSessionRequest struct {
	TenantID        uuid.UUID
	ApplicationID   uuid.UUID
	ApplicationType allocation.ApplicationType
	CounterpartyID  uuid.UUID
	LocationID      uuid.UUID
	LimitAmount     decimal.Decimal
	ReadOnly        bool // Open in VIEW mode
}

// SaveResult is the outcome of a save: what was written and the rebased session
type SaveResult struct {
	Plan    allocation.SavePlan `json:"plan"`
	Session allocation.Session  `json:"session"`
}
