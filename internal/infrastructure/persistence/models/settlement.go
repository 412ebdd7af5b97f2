package models

import (
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for an open receivable or payable
type DocumentModel struct {
	TenantModel
	Kind            allocation.LineKind `gorm:"type:varchar(20);not null;index:idx_settlement_documents_placement,priority:4"`
	ReferenceNumber string              `gorm:"type:varchar(64);not null"`
	CounterpartyID  uuid.UUID           `gorm:"type:uuid;not null;index:idx_settlement_documents_placement,priority:2"`
	LocationID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_settlement_documents_placement,priority:3"`
	TransactionDate time.Time           `gorm:"not null"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	AmountDue       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	AmountPaid      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "settlement_documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() *allocation.Document {
	return &allocation.Document{
		TenantEntity:    m.ToDomainTenantEntity(),
		Kind:            m.Kind,
		ReferenceNumber: m.ReferenceNumber,
		CounterpartyID:  m.CounterpartyID,
		LocationID:      m.LocationID,
		TransactionDate: m.TransactionDate,
		TotalAmount:     m.TotalAmount,
		AmountDue:       m.AmountDue,
		AmountPaid:      m.AmountPaid,
	}
}

// DocumentModelFromDomain converts a domain Document to the persistence model
func DocumentModelFromDomain(d *allocation.Document) *DocumentModel {
	m := &DocumentModel{
		Kind:            d.Kind,
		ReferenceNumber: d.ReferenceNumber,
		CounterpartyID:  d.CounterpartyID,
		LocationID:      d.LocationID,
		TransactionDate: d.TransactionDate,
		TotalAmount:     d.TotalAmount,
		AmountDue:       d.AmountDue,
		AmountPaid:      d.AmountPaid,
	}
	m.FromDomainTenantEntity(d.TenantEntity)
	return m
}

// AllocationRecordModel is the persistence model for one saved allocation
type AllocationRecordModel struct {
	TenantModel
	ApplicationID   uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_records_app_doc,priority:1"`
	ApplicationType allocation.ApplicationType `gorm:"type:varchar(30);not null"`
	DocumentID      uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_records_app_doc,priority:2;index"`
	DocumentKind    allocation.LineKind        `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (AllocationRecordModel) TableName() string {
	return "allocation_records"
}

// ToDomain converts the persistence model to a domain AllocationRecord
func (m *AllocationRecordModel) ToDomain() *allocation.AllocationRecord {
	return &allocation.AllocationRecord{
		TenantEntity:    m.ToDomainTenantEntity(),
		ApplicationID:   m.ApplicationID,
		ApplicationType: m.ApplicationType,
		DocumentID:      m.DocumentID,
		DocumentKind:    m.DocumentKind,
		Amount:          m.Amount,
	}
}

// AllocationRecordModelFromDomain converts a domain AllocationRecord to the persistence model
func AllocationRecordModelFromDomain(r *allocation.AllocationRecord) *AllocationRecordModel {
	m := &AllocationRecordModel{
		ApplicationID:   r.ApplicationID,
		ApplicationType: r.ApplicationType,
		DocumentID:      r.DocumentID,
		DocumentKind:    r.DocumentKind,
		Amount:          r.Amount,
	}
	m.FromDomainTenantEntity(r.TenantEntity)
	return m
}
