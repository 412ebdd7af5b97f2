package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/erp/settlement/internal/domain/shared"
	"github.com/erp/settlement/internal/infrastructure/persistence/models"
	"github.com/erp/settlement/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAllocationRecordRepository implements allocation.AllocationRecordRepository using GORM
type GormAllocationRecordRepository struct {
	db *gorm.DB
}

// NewGormAllocationRecordRepository creates a new GormAllocationRecordRepository
func NewGormAllocationRecordRepository(db *gorm.DB) *GormAllocationRecordRepository {
	return &GormAllocationRecordRepository{db: db}
}

// FindByApplication returns every record saved for an application
func (r *GormAllocationRecordRepository) FindByApplication(ctx context.Context, tenantID, applicationID uuid.UUID) ([]allocation.AllocationRecord, error) {
	var rows []models.AllocationRecordModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find allocation records: %w", err)
	}

	records := make([]allocation.AllocationRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].ToDomain())
	}
	return records, nil
}

// ApplyPlan writes record changes and document balance adjustments in one transaction.
// Updates and deletes only match a record still holding PreviousAmount, so a plan built
// from stale records fails with shared.ErrConcurrencyConflict instead of applying twice.
func (r *GormAllocationRecordRepository) ApplyPlan(ctx context.Context, tenantID uuid.UUID, plan allocation.SavePlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range plan.Creates {
			rec, err := allocation.NewAllocationRecord(tenantID, plan.ApplicationID, plan.ApplicationType, c.DocumentID, c.DocumentKind, c.Amount)
			if err != nil {
				return err
			}
			if err := tx.Create(models.AllocationRecordModelFromDomain(rec)).Error; err != nil {
				return fmt.Errorf("failed to create allocation record for %s: %w", c.DocumentID, err)
			}
		}

		for _, c := range plan.Updates {
			result := tx.Model(&models.AllocationRecordModel{}).
				Scopes(tenant.Scope(tenantID)).
				Where("id = ?", c.RecordID).
				Where("amount = ?", c.PreviousAmount).
				Updates(map[string]any{
					"amount":     c.Amount,
					"version":    gorm.Expr("version + 1"),
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return fmt.Errorf("failed to update allocation record %s: %w", c.RecordID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("allocation record %s: %w", c.RecordID, shared.ErrConcurrencyConflict)
			}
		}

		for _, c := range plan.Deletes {
			result := tx.Scopes(tenant.Scope(tenantID)).
				Where("id = ?", c.RecordID).
				Where("amount = ?", c.PreviousAmount).
				Delete(&models.AllocationRecordModel{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete allocation record %s: %w", c.RecordID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("allocation record %s: %w", c.RecordID, shared.ErrConcurrencyConflict)
			}
		}

		documents := NewGormDocumentRepository(tx)
		for _, adj := range plan.Adjustments {
			if err := documents.AdjustBalance(ctx, tenantID, adj.DocumentID, adj.AmountDueDelta, adj.AmountPaidDelta); err != nil {
				return fmt.Errorf("failed to adjust balance of %s: %w", adj.DocumentID, err)
			}
		}
		return nil
	})
}

// Ensure GormAllocationRecordRepository implements the interface
var _ allocation.AllocationRecordRepository = (*GormAllocationRecordRepository)(nil)
