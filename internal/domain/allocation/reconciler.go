package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordChange is one allocation record to create, update or delete
type RecordChange struct {
	RecordID       uuid.UUID       `json:"record_id,omitempty"` // Zero for creates
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentKind   LineKind        `json:"document_kind"`
	Amount         decimal.Decimal `json:"amount"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
}

// Adjustment moves a document's balance by the change in what this application holds
type Adjustment struct {
	DocumentID      uuid.UUID       `json:"document_id"`
	DocumentKind    LineKind        `json:"document_kind"`
	AmountDueDelta  decimal.Decimal `json:"amount_due_delta"`
	AmountPaidDelta decimal.Decimal `json:"amount_paid_delta"`
}

// SavePlan is everything a save must write
type SavePlan struct {
	ApplicationID   uuid.UUID       `json:"application_id"`
	ApplicationType ApplicationType `json:"application_type"`
	Creates         []RecordChange  `json:"creates"`
	Updates         []RecordChange  `json:"updates"`
	Deletes         []RecordChange  `json:"deletes"`
	Adjustments     []Adjustment    `json:"adjustments"`
	AppliedTotal    decimal.Decimal `json:"applied_total"`
	UnappliedTotal  decimal.Decimal `json:"unapplied_total"`
}

// IsEmpty returns true when the save writes nothing
func (p SavePlan) IsEmpty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0 && len(p.Adjustments) == 0
}

// Reconciler merges saved allocation records with the live open-line set
type Reconciler struct {
	documents DocumentLookup
	logger    *zap.Logger
}

// ReconcilerOption is a functional option for configuring the reconciler
type ReconcilerOption func(*Reconciler)

// WithReconcilerLogger sets the logger used for lookup warnings
func WithReconcilerLogger(logger *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReconciler creates a reconciler resolving closed documents through documents
func NewReconciler(documents DocumentLookup, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		documents: documents,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hydrate folds saved records into openLines. Records against documents that are no
// longer open are rebuilt from a live lookup; when that lookup fails the line is left out
// and a warning is returned. The result is sorted oldest-first.
func (r *Reconciler) Hydrate(
	ctx context.Context,
	tenantID uuid.UUID,
	openLines []OpenLine,
	records []AllocationRecord,
) ([]OpenLine, []Warning) {
	lines := copyLines(openLines)
	index := make(map[uuid.UUID]int, len(lines))
	for i := range lines {
		index[lines[i].ID] = i
	}

	saved := make(map[uuid.UUID]decimal.Decimal, len(records))
	order := make([]uuid.UUID, 0, len(records))
	kinds := make(map[uuid.UUID]LineKind, len(records))
	for _, rec := range records {
		if _, ok := saved[rec.DocumentID]; !ok {
			order = append(order, rec.DocumentID)
			saved[rec.DocumentID] = decimal.Zero
			kinds[rec.DocumentID] = rec.DocumentKind
		}
		saved[rec.DocumentID] = saved[rec.DocumentID].Add(rec.Amount)
	}

	var warnings []Warning
	for _, docID := range order {
		amount := saved[docID]
		if i, ok := index[docID]; ok {
			lines[i] = withSavedAmount(lines[i], amount)
			continue
		}

		doc, err := r.documents.FindByID(ctx, tenantID, docID)
		if err != nil || doc == nil {
			id := docID
			msg := "saved allocation references a document that no longer exists"
			if err != nil {
				msg = fmt.Sprintf("could not load document for saved allocation: %v", err)
			}
			r.logger.Warn("Omitting saved allocation line",
				zap.String("document_id", docID.String()),
				zap.String("amount", amount.String()),
				zap.Error(err))
			warnings = append(warnings, Warning{Kind: kinds[docID], DocumentID: &id, Message: msg})
			continue
		}

		line := doc.ToOpenLine()
		line.Synthesized = true
		lines = append(lines, withSavedAmount(line, amount))
		index[docID] = len(lines) - 1
	}

	sortLinesOldestFirst(lines)
	return lines, warnings
}

// Plan diffs the session against the saved records. Records for documents that are not
// in the session are left alone.
func (r *Reconciler) Plan(s Session, records []AllocationRecord) SavePlan {
	byDoc := make(map[uuid.UUID]AllocationRecord, len(records))
	for _, rec := range records {
		byDoc[rec.DocumentID] = rec
	}

	plan := SavePlan{
		ApplicationID:   s.ApplicationID,
		ApplicationType: s.ApplicationType,
		Creates:         []RecordChange{},
		Updates:         []RecordChange{},
		Deletes:         []RecordChange{},
		Adjustments:     []Adjustment{},
		AppliedTotal:    s.AppliedTotal,
		UnappliedTotal:  s.UnappliedTotal,
	}
	for _, line := range s.Lines {
		rec, hasRecord := byDoc[line.ID]
		applied := line.AppliedAmount

		switch {
		case !hasRecord && applied.IsPositive():
			plan.Creates = append(plan.Creates, RecordChange{
				DocumentID:     line.ID,
				DocumentKind:   line.Kind,
				Amount:         applied,
				PreviousAmount: decimal.Zero,
			})
		case hasRecord && applied.IsPositive() && !applied.Equal(rec.Amount):
			plan.Updates = append(plan.Updates, RecordChange{
				RecordID:       rec.ID,
				DocumentID:     line.ID,
				DocumentKind:   line.Kind,
				Amount:         applied,
				PreviousAmount: rec.Amount,
			})
		case hasRecord && applied.IsZero():
			plan.Deletes = append(plan.Deletes, RecordChange{
				RecordID:       rec.ID,
				DocumentID:     line.ID,
				DocumentKind:   line.Kind,
				Amount:         decimal.Zero,
				PreviousAmount: rec.Amount,
			})
		}

		if delta := line.Delta(); !delta.IsZero() {
			plan.Adjustments = append(plan.Adjustments, Adjustment{
				DocumentID:      line.ID,
				DocumentKind:    line.Kind,
				AmountDueDelta:  delta.Neg(),
				AmountPaidDelta: delta,
			})
		}
	}
	return plan
}

func withSavedAmount(line OpenLine, amount decimal.Decimal) OpenLine {
	line.OriginalAllocatedAmount = amount
	line.AppliedAmount = amount
	line.IsSelected = amount.IsPositive()
	return line
}
