package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentReader lists open documents of one kind for a placement
type DocumentReader interface {
	FindOpen(ctx context.Context, tenantID, counterpartyID, locationID uuid.UUID, kind LineKind) ([]Document, error)
}

// DocumentLookup resolves a single document regardless of its balance
type DocumentLookup interface {
	// FindByID returns nil, nil when the document does not exist
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
}

// DocumentRepository is the persistence port for settlement documents
type DocumentRepository interface {
	DocumentReader
	DocumentLookup
	Save(ctx context.Context, doc *Document) error
	AdjustBalance(ctx context.Context, tenantID, id uuid.UUID, dueDelta, paidDelta decimal.Decimal) error
}

// AllocationRecordRepository is the persistence port for allocation records
type AllocationRecordRepository interface {
	FindByApplication(ctx context.Context, tenantID, applicationID uuid.UUID) ([]AllocationRecord, error)
	// ApplyPlan writes record changes and balance adjustments atomically
	ApplyPlan(ctx context.Context, tenantID uuid.UUID, plan SavePlan) error
}

// SessionStore keeps working sessions between events
type SessionStore interface {
	// Get returns ErrSessionNotFound when the session is unknown or expired
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Put(ctx context.Context, session Session, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}
