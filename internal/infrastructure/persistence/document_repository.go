package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/erp/settlement/internal/domain/shared"
	"github.com/erp/settlement/internal/infrastructure/persistence/models"
	"github.com/erp/settlement/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrBalanceExceeded is returned when an adjustment would push a document's due or paid amount below zero
var ErrBalanceExceeded = shared.NewDomainError("BALANCE_EXCEEDED", "Document balance changed concurrently and cannot absorb this allocation")

// GormDocumentRepository implements allocation.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindOpen lists documents of one kind with a positive amount due for a placement
func (r *GormDocumentRepository) FindOpen(
	ctx context.Context,
	tenantID, counterpartyID, locationID uuid.UUID,
	kind allocation.LineKind,
) ([]allocation.Document, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("counterparty_id = ?", counterpartyID).
		Where("location_id = ?", locationID).
		Where("kind = ?", kind).
		Where("amount_due > ?", 0).
		Order("transaction_date ASC, reference_number ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find open %s documents: %w", kind, err)
	}

	docs := make([]allocation.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, *rows[i].ToDomain())
	}
	return docs, nil
}

// FindByID returns nil, nil when the document does not exist
func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*allocation.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces a document
func (r *GormDocumentRepository) Save(ctx context.Context, doc *allocation.Document) error {
	model := models.DocumentModelFromDomain(doc)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(model).Error
}

// AdjustBalance moves amount_due and amount_paid by the given deltas in one statement.
// Returns ErrBalanceExceeded when the due amount would become negative.
func (r *GormDocumentRepository) AdjustBalance(
	ctx context.Context,
	tenantID, id uuid.UUID,
	dueDelta, paidDelta decimal.Decimal,
) error {
	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Where("amount_due + ? >= 0", dueDelta).
		Where("amount_paid + ? >= 0", paidDelta).
		Updates(map[string]any{
			"amount_due":  gorm.Expr("amount_due + ?", dueDelta),
			"amount_paid": gorm.Expr("amount_paid + ?", paidDelta),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return ErrBalanceExceeded
}

// Ensure GormDocumentRepository implements the interface
var _ allocation.DocumentRepository = (*GormDocumentRepository)(nil)
