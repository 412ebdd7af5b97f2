package allocation

import (
	"time"

	"github.com/erp/settlement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document is a receivable or payable as last read from the document store
type Document struct {
	shared.TenantEntity
	Kind            LineKind
	ReferenceNumber string
	CounterpartyID  uuid.UUID
	LocationID      uuid.UUID
	TransactionDate time.Time
	TotalAmount     decimal.Decimal
	AmountDue       decimal.Decimal
	AmountPaid      decimal.Decimal
}

// NewDocument creates a document with nothing paid yet
func NewDocument(
	tenantID uuid.UUID,
	kind LineKind,
	referenceNumber string,
	counterpartyID, locationID uuid.UUID,
	transactionDate time.Time,
	totalAmount decimal.Decimal,
) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Invalid document kind")
	}
	if referenceNumber == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference number cannot be empty")
	}
	if counterpartyID == uuid.Nil || locationID == uuid.Nil {
		return nil, ErrPlacementRequired
	}
	if totalAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &Document{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		Kind:            kind,
		ReferenceNumber: referenceNumber,
		CounterpartyID:  counterpartyID,
		LocationID:      locationID,
		TransactionDate: transactionDate,
		TotalAmount:     totalAmount,
		AmountDue:       totalAmount,
		AmountPaid:      decimal.Zero,
	}, nil
}

// IsOpen returns true while the document still has an outstanding balance
func (d *Document) IsOpen() bool {
	return d.AmountDue.IsPositive()
}

// ToOpenLine normalizes the document into an unallocated line
func (d *Document) ToOpenLine() OpenLine {
	return OpenLine{
		ID:                      d.ID,
		Kind:                    d.Kind,
		ReferenceNumber:         d.ReferenceNumber,
		TransactionDate:         d.TransactionDate,
		OriginalAmount:          d.TotalAmount,
		DueAmount:               d.AmountDue,
		AppliedAmount:           decimal.Zero,
		OriginalAllocatedAmount: decimal.Zero,
	}
}

// AllocationRecord is one persisted slice of an application against a document
type AllocationRecord struct {
	shared.TenantEntity
	ApplicationID   uuid.UUID
	ApplicationType ApplicationType
	DocumentID      uuid.UUID
	DocumentKind    LineKind
	Amount          decimal.Decimal
}

// NewAllocationRecord creates a record for a positive amount
func NewAllocationRecord(
	tenantID, applicationID uuid.UUID,
	applicationType ApplicationType,
	documentID uuid.UUID,
	documentKind LineKind,
	amount decimal.Decimal,
) (*AllocationRecord, error) {
	if !applicationType.IsValid() {
		return nil, shared.NewDomainError("INVALID_APPLICATION_TYPE", "Invalid application type")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Allocated amount must be positive")
	}
	return &AllocationRecord{
		TenantEntity:    shared.NewTenantEntity(tenantID),
		ApplicationID:   applicationID,
		ApplicationType: applicationType,
		DocumentID:      documentID,
		DocumentKind:    documentKind,
		Amount:          amount,
	}, nil
}
