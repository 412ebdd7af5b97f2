package dto

import (
	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest opens a session for a new payment or credit
type OpenSessionRequest struct {
	ApplicationType string          `json:"application_type" binding:"required,oneof=CUSTOMER_PAYMENT VENDOR_PAYMENT VENDOR_CREDIT"`
	CounterpartyID  string          `json:"counterparty_id" binding:"omitempty,uuid"`
	LocationID      string          `json:"location_id" binding:"omitempty,uuid"`
	LimitAmount     decimal.Decimal `json:"limit_amount" binding:"gte=0"`
}

// OpenEditSessionRequest reopens a saved application for editing or viewing
type OpenEditSessionRequest struct {
	OpenSessionRequest
	ApplicationID string `json:"application_id" binding:"required,uuid"`
	ReadOnly      bool   `json:"read_only"`
}

// EventRequest is one user interaction. ADD_LINE names the document through line_id;
// the line itself is read from the document store.
type EventRequest struct {
	Type    string          `json:"type" binding:"required"`
	LineID  string          `json:"line_id" binding:"omitempty,uuid"`
	Amount  decimal.Decimal `json:"amount"`
	Checked bool            `json:"checked"`
}

// ToEvent converts the request into an engine event. The reducer validates the event itself.
func (r EventRequest) ToEvent() allocation.Event {
	return allocation.Event{
		Type:    allocation.EventType(r.Type),
		LineID:  parseUUID(r.LineID),
		Amount:  r.Amount,
		Checked: r.Checked,
	}
}

// Placement returns the parsed counterparty and location, uuid.Nil when absent
func (r OpenSessionRequest) Placement() (counterpartyID, locationID uuid.UUID) {
	return parseUUID(r.CounterpartyID), parseUUID(r.LocationID)
}

// parseUUID parses an id already checked by the uuid binding tag
func parseUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, _ := uuid.Parse(s)
	return id
}
