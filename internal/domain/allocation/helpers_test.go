package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/erp/settlement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return baseDate.AddDate(0, 0, n-1)
}

func newLine(ref string, due string, date time.Time) OpenLine {
	return OpenLine{
		ID:                      uuid.New(),
		Kind:                    LineKindInvoice,
		ReferenceNumber:         ref,
		TransactionDate:         date,
		OriginalAmount:          dec(due),
		DueAmount:               dec(due),
		AppliedAmount:           decimal.Zero,
		OriginalAllocatedAmount: decimal.Zero,
	}
}

func newDoc(kind LineKind, ref string, date time.Time, total, due string) Document {
	return Document{
		TenantEntity:    shared.NewTenantEntity(uuid.New()),
		Kind:            kind,
		ReferenceNumber: ref,
		CounterpartyID:  uuid.New(),
		LocationID:      uuid.New(),
		TransactionDate: date,
		TotalAmount:     dec(total),
		AmountDue:       dec(due),
		AmountPaid:      dec(total).Sub(dec(due)),
	}
}

func newCreateSession(t *testing.T, limit string, lines ...OpenLine) Session {
	t.Helper()
	s, err := NewSession(SessionParams{
		TenantID:        uuid.New(),
		ApplicationType: ApplicationTypeCustomerPayment,
		CounterpartyID:  uuid.New(),
		LocationID:      uuid.New(),
		LimitAmount:     dec(limit),
		Lines:           lines,
	})
	require.NoError(t, err)
	return s
}

func newEditSession(t *testing.T, limit string, lines ...OpenLine) Session {
	t.Helper()
	s, err := NewSession(SessionParams{
		TenantID:        uuid.New(),
		ApplicationID:   uuid.New(),
		ApplicationType: ApplicationTypeCustomerPayment,
		Mode:            SessionModeEdit,
		CounterpartyID:  uuid.New(),
		LocationID:      uuid.New(),
		LimitAmount:     dec(limit),
		Lines:           lines,
	})
	require.NoError(t, err)
	return s
}

// savedLine is an open line as hydrated from a saved allocation of amount
func savedLine(ref, due, amount string, date time.Time) OpenLine {
	line := newLine(ref, due, date)
	line.OriginalAllocatedAmount = dec(amount)
	line.AppliedAmount = dec(amount)
	line.IsSelected = dec(amount).IsPositive()
	return line
}

func mustReduce(t *testing.T, s Session, e Event) Session {
	t.Helper()
	next, err := Reduce(s, e)
	require.NoError(t, err)
	return next
}

func lineByID(t *testing.T, s Session, id uuid.UUID) OpenLine {
	t.Helper()
	line, ok := s.Line(id)
	require.True(t, ok, "line %s not in session", id)
	return line
}

// assertApplied compares each line's applied amount in order
func assertApplied(t *testing.T, lines []OpenLine, want ...string) {
	t.Helper()
	require.Len(t, lines, len(want))
	for i, w := range want {
		assert.True(t, lines[i].AppliedAmount.Equal(dec(w)),
			"line %d (%s): applied %s, want %s", i, lines[i].ReferenceNumber, lines[i].AppliedAmount, w)
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "got %s, want %s", got, want)
}

// assertInvariants checks the totals and per-line invariants of a session
func assertInvariants(t *testing.T, s Session) {
	t.Helper()
	sum := decimal.Zero
	for _, line := range s.Lines {
		assert.False(t, line.AppliedAmount.IsNegative(), "%s applied is negative", line.ReferenceNumber)
		assert.True(t, line.AppliedAmount.LessThanOrEqual(LineCap(line, s.Mode)),
			"%s applied %s exceeds cap %s", line.ReferenceNumber, line.AppliedAmount, LineCap(line, s.Mode))
		assert.Equal(t, line.AppliedAmount.IsPositive(), line.IsSelected, "%s selection out of sync", line.ReferenceNumber)
		sum = sum.Add(line.AppliedAmount)
	}
	assert.True(t, sum.Equal(s.AppliedTotal), "sum %s != applied total %s", sum, s.AppliedTotal)
	assert.True(t, s.AppliedTotal.LessThanOrEqual(s.LimitAmount), "applied %s exceeds limit %s", s.AppliedTotal, s.LimitAmount)
	assert.True(t, s.UnappliedTotal.Equal(decimal.Max(s.LimitAmount.Sub(s.AppliedTotal), decimal.Zero)),
		"unapplied %s, limit %s, applied %s", s.UnappliedTotal, s.LimitAmount, s.AppliedTotal)
}

// mockDocuments is a testify mock of the document ports
type mockDocuments struct {
	mock.Mock
}

func (m *mockDocuments) FindOpen(ctx context.Context, tenantID, counterpartyID, locationID uuid.UUID, kind LineKind) ([]Document, error) {
	args := m.Called(ctx, tenantID, counterpartyID, locationID, kind)
	var docs []Document
	if v := args.Get(0); v != nil {
		docs = v.([]Document)
	}
	return docs, args.Error(1)
}

func (m *mockDocuments) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	args := m.Called(ctx, tenantID, id)
	var doc *Document
	if v := args.Get(0); v != nil {
		doc = v.(*Document)
	}
	return doc, args.Error(1)
}
