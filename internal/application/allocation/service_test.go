package allocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// Test doubles
// =============================================================================

type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) FindOpen(ctx context.Context, tenantID, counterpartyID, locationID uuid.UUID, kind allocation.LineKind) ([]allocation.Document, error) {
	args := m.Called(ctx, tenantID, counterpartyID, locationID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]allocation.Document), args.Error(1)
}

func (m *MockDocumentSource) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*allocation.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*allocation.Document), args.Error(1)
}

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByApplication(ctx context.Context, tenantID, applicationID uuid.UUID) ([]allocation.AllocationRecord, error) {
	args := m.Called(ctx, tenantID, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]allocation.AllocationRecord), args.Error(1)
}

func (m *MockRecordRepository) ApplyPlan(ctx context.Context, tenantID uuid.UUID, plan allocation.SavePlan) error {
	args := m.Called(ctx, tenantID, plan)
	return args.Error(0)
}

// memoryStore is a map-backed SessionStore
type memoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]allocation.Session
	puts     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[uuid.UUID]allocation.Session{}}
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (*allocation.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, allocation.ErrSessionNotFound
	}
	clone := session.Clone()
	return &clone, nil
}

func (s *memoryStore) Put(_ context.Context, session allocation.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	s.puts++
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// =============================================================================
// Fixtures
// =============================================================================

var baseDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	tenantID       uuid.UUID
	counterpartyID uuid.UUID
	locationID     uuid.UUID
	inv1           allocation.Document
	inv2           allocation.Document
	docs           *MockDocumentSource
	records        *MockRecordRepository
	store          *memoryStore
	logs           *observer.ObservedLogs
	service        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tenantID:       uuid.New(),
		counterpartyID: uuid.New(),
		locationID:     uuid.New(),
		docs:           new(MockDocumentSource),
		records:        new(MockRecordRepository),
		store:          newMemoryStore(),
	}
	f.inv1 = f.document(t, "INV-1", 1, "60")
	f.inv2 = f.document(t, "INV-2", 2, "80")

	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	f.service = NewService(f.docs, f.records, f.store,
		WithLogger(zap.New(core)),
		WithSessionTTL(time.Hour),
	)
	return f
}

func (f *fixture) document(t *testing.T, ref string, day int, total string) allocation.Document {
	t.Helper()
	doc, err := allocation.NewDocument(f.tenantID, allocation.LineKindInvoice, ref,
		f.counterpartyID, f.locationID, baseDate.AddDate(0, 0, day), dec(total))
	require.NoError(t, err)
	return *doc
}

func (f *fixture) expectCatalog(docs ...allocation.Document) {
	f.docs.On("FindOpen", mock.Anything, f.tenantID, f.counterpartyID, f.locationID, allocation.LineKindInvoice).
		Return(docs, nil)
	f.docs.On("FindOpen", mock.Anything, f.tenantID, f.counterpartyID, f.locationID, allocation.LineKindDebitMemo).
		Return([]allocation.Document{}, nil)
}

func (f *fixture) open(t *testing.T, limit string) *allocation.Session {
	t.Helper()
	session, err := f.service.OpenSession(context.Background(), OpenSessionRequest{
		TenantID:        f.tenantID,
		ApplicationType: allocation.ApplicationTypeCustomerPayment,
		CounterpartyID:  f.counterpartyID,
		LocationID:      f.locationID,
		LimitAmount:     dec(limit),
	})
	require.NoError(t, err)
	return session
}

func (f *fixture) apply(t *testing.T, sessionID uuid.UUID, event allocation.Event) *allocation.Session {
	t.Helper()
	session, err := f.service.Apply(context.Background(), f.tenantID, sessionID, event)
	require.NoError(t, err)
	return session
}

// recordsFrom turns the creates of a plan into stored records
func (f *fixture) recordsFrom(t *testing.T, plan allocation.SavePlan) []allocation.AllocationRecord {
	t.Helper()
	var out []allocation.AllocationRecord
	for _, c := range plan.Creates {
		rec, err := allocation.NewAllocationRecord(f.tenantID, plan.ApplicationID, plan.ApplicationType, c.DocumentID, c.DocumentKind, c.Amount)
		require.NoError(t, err)
		out = append(out, *rec)
	}
	return out
}

// =============================================================================
// Tests
// =============================================================================

func TestService_OpenSession(t *testing.T) {
	t.Run("loads open lines oldest first", func(t *testing.T) {
		f := newFixture(t)
		f.expectCatalog(f.inv2, f.inv1)

		session := f.open(t, "100")

		assert.Equal(t, allocation.SessionModeCreate, session.Mode)
		require.Len(t, session.Lines, 2)
		assert.Equal(t, f.inv1.ID, session.Lines[0].ID)
		assertDecimal(t, "100", session.UnappliedTotal)

		stored, err := f.service.Get(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.Version, stored.Version)
		assert.Equal(t, 1, f.logs.FilterMessage("Allocation session opened").Len())
		f.docs.AssertExpectations(t)
	})

	t.Run("rejects unknown application type", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.OpenSession(context.Background(), OpenSessionRequest{
			TenantID:        f.tenantID,
			ApplicationType: "REFUND",
		})
		require.Error(t, err)
		assert.Zero(t, f.store.puts)
	})

	t.Run("catalog failure becomes a warning", func(t *testing.T) {
		f := newFixture(t)
		f.docs.On("FindOpen", mock.Anything, f.tenantID, f.counterpartyID, f.locationID, allocation.LineKindInvoice).
			Return([]allocation.Document{f.inv1}, nil)
		f.docs.On("FindOpen", mock.Anything, f.tenantID, f.counterpartyID, f.locationID, allocation.LineKindDebitMemo).
			Return(nil, errors.New("replica lag"))

		session := f.open(t, "10")

		assert.Len(t, session.Lines, 1)
		require.Len(t, session.Warnings, 1)
		assert.Equal(t, allocation.LineKindDebitMemo, session.Warnings[0].Kind)
		assert.Equal(t, 1, f.logs.FilterMessage("Allocation session degraded").Len())
	})
}

func TestService_Apply(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog(f.inv1, f.inv2)
	session := f.open(t, "0")

	t.Run("rejected event leaves stored session untouched", func(t *testing.T) {
		_, err := f.service.Apply(context.Background(), f.tenantID, session.ID, allocation.ToggleLine(f.inv1.ID, true))
		assert.ErrorIs(t, err, allocation.ErrLimitRequired)

		stored, err := f.service.Get(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.Version, stored.Version)
		assert.False(t, stored.Lines[0].IsSelected)
	})

	t.Run("accepted events are stored", func(t *testing.T) {
		f.apply(t, session.ID, allocation.SetLimit(dec("100")))
		updated := f.apply(t, session.ID, allocation.ToggleLine(f.inv1.ID, true))

		assertDecimal(t, "60", updated.Lines[0].AppliedAmount)
		assertDecimal(t, "40", updated.UnappliedTotal)

		stored, err := f.service.Get(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Version, stored.Version)
		assert.Equal(t, session.Version+2, stored.Version)
	})

	t.Run("other tenants cannot see the session", func(t *testing.T) {
		_, err := f.service.Apply(context.Background(), uuid.New(), session.ID, allocation.ClearAll())
		assert.ErrorIs(t, err, allocation.ErrSessionNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.service.Get(context.Background(), f.tenantID, uuid.New())
		assert.ErrorIs(t, err, allocation.ErrSessionNotFound)
	})
}

func TestService_AddLine(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog(f.inv1)
	session := f.open(t, "100")

	t.Run("line is read from the document store", func(t *testing.T) {
		f.docs.On("FindByID", mock.Anything, f.tenantID, f.inv2.ID).Return(&f.inv2, nil).Once()
		tampered := f.inv2.ToOpenLine()
		tampered.DueAmount = dec("5")

		updated := f.apply(t, session.ID, allocation.Event{Type: allocation.EventAddLine, LineID: f.inv2.ID, Line: &tampered})

		require.Len(t, updated.Lines, 2)
		assertDecimal(t, "80", updated.Lines[1].DueAmount)
		assert.False(t, updated.Lines[1].Synthesized)
	})

	t.Run("document of another placement is rejected", func(t *testing.T) {
		foreign, err := allocation.NewDocument(f.tenantID, allocation.LineKindInvoice, "INV-9",
			uuid.New(), f.locationID, baseDate, dec("80"))
		require.NoError(t, err)
		f.docs.On("FindByID", mock.Anything, f.tenantID, foreign.ID).Return(foreign, nil).Once()

		_, err = f.service.Apply(context.Background(), f.tenantID, session.ID, allocation.AddLine(foreign.ToOpenLine()))
		assert.ErrorIs(t, err, allocation.ErrForeignDocument)

		stored, err := f.service.Get(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		_, ok := stored.Line(foreign.ID)
		assert.False(t, ok)
	})

	t.Run("document kind must match the application", func(t *testing.T) {
		bill, err := allocation.NewDocument(f.tenantID, allocation.LineKindVendorBill, "BILL-1",
			f.counterpartyID, f.locationID, baseDate, dec("20"))
		require.NoError(t, err)
		f.docs.On("FindByID", mock.Anything, f.tenantID, bill.ID).Return(bill, nil).Once()

		_, err = f.service.Apply(context.Background(), f.tenantID, session.ID, allocation.AddLine(bill.ToOpenLine()))
		assert.ErrorIs(t, err, allocation.ErrKindNotAccepted)
	})

	t.Run("unknown document", func(t *testing.T) {
		missing := uuid.New()
		f.docs.On("FindByID", mock.Anything, f.tenantID, missing).Return(nil, nil).Once()

		_, err := f.service.Apply(context.Background(), f.tenantID, session.ID,
			allocation.Event{Type: allocation.EventAddLine, LineID: missing})
		assert.ErrorIs(t, err, allocation.ErrDocumentNotFound)
	})

	t.Run("lookup failure is returned", func(t *testing.T) {
		broken := uuid.New()
		f.docs.On("FindByID", mock.Anything, f.tenantID, broken).Return(nil, errors.New("connection reset")).Once()

		_, err := f.service.Apply(context.Background(), f.tenantID, session.ID,
			allocation.Event{Type: allocation.EventAddLine, LineID: broken})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("event without a document id", func(t *testing.T) {
		_, err := f.service.Apply(context.Background(), f.tenantID, session.ID, allocation.Event{Type: allocation.EventAddLine})
		assert.ErrorIs(t, err, allocation.ErrInvalidEvent)
	})

	f.docs.AssertExpectations(t)
}

func TestService_Save(t *testing.T) {
	t.Run("persists plan and rebases so a second save is a no-op", func(t *testing.T) {
		f := newFixture(t)
		f.expectCatalog(f.inv1, f.inv2)
		session := f.open(t, "100")
		f.apply(t, session.ID, allocation.ToggleLine(f.inv1.ID, true))
		f.apply(t, session.ID, allocation.ToggleLine(f.inv2.ID, true))

		f.records.On("FindByApplication", mock.Anything, f.tenantID, session.ApplicationID).
			Return([]allocation.AllocationRecord{}, nil).Once()
		f.records.On("ApplyPlan", mock.Anything, f.tenantID, mock.MatchedBy(func(p allocation.SavePlan) bool {
			return p.ApplicationID == session.ApplicationID && len(p.Creates) == 2
		})).Return(nil).Once()

		result, err := f.service.Save(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)

		assertDecimal(t, "60", result.Plan.Creates[0].Amount)
		assertDecimal(t, "40", result.Plan.Creates[1].Amount)
		require.Len(t, result.Plan.Adjustments, 2)
		assertDecimal(t, "-60", result.Plan.Adjustments[0].AmountDueDelta)
		assertDecimal(t, "40", result.Plan.Adjustments[1].AmountPaidDelta)

		assert.Equal(t, allocation.SessionModeEdit, result.Session.Mode)
		assertDecimal(t, "60", result.Session.Lines[0].OriginalAllocatedAmount)
		assertDecimal(t, "40", result.Session.Lines[1].DueAmount)

		stored, err := f.service.Get(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, allocation.SessionModeEdit, stored.Mode)

		f.records.On("FindByApplication", mock.Anything, f.tenantID, session.ApplicationID).
			Return(f.recordsFrom(t, result.Plan), nil).Once()

		again, err := f.service.Save(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		assert.True(t, again.Plan.IsEmpty())
		f.records.AssertNumberOfCalls(t, "ApplyPlan", 1)
		f.records.AssertExpectations(t)
	})

	t.Run("failed write keeps the session as it was", func(t *testing.T) {
		f := newFixture(t)
		f.expectCatalog(f.inv1)
		session := f.open(t, "20")
		f.apply(t, session.ID, allocation.ToggleLine(f.inv1.ID, true))

		f.records.On("FindByApplication", mock.Anything, f.tenantID, session.ApplicationID).
			Return([]allocation.AllocationRecord{}, nil)
		f.records.On("ApplyPlan", mock.Anything, f.tenantID, mock.Anything).
			Return(errors.New("serialization failure"))

		_, err := f.service.Save(context.Background(), f.tenantID, session.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "serialization failure")

		stored, err := f.service.Get(context.Background(), f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, allocation.SessionModeCreate, stored.Mode)
		assertDecimal(t, "20", stored.Lines[0].AppliedAmount)
		assert.Equal(t, 1, f.logs.FilterMessage("Failed to save allocation").Len())
	})

	t.Run("record lookup failure", func(t *testing.T) {
		f := newFixture(t)
		f.expectCatalog(f.inv1)
		session := f.open(t, "20")
		f.records.On("FindByApplication", mock.Anything, f.tenantID, session.ApplicationID).
			Return(nil, errors.New("connection refused"))

		_, err := f.service.Save(context.Background(), f.tenantID, session.ID)
		require.Error(t, err)
		f.records.AssertNotCalled(t, "ApplyPlan", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_OpenEditSession(t *testing.T) {
	f := newFixture(t)
	applicationID := uuid.New()

	// INV-1 was paid 30 by this application; 30 is still due
	inv1 := f.inv1
	inv1.AmountDue = dec("30")
	inv1.AmountPaid = dec("30")
	f.expectCatalog(inv1, f.inv2)

	saved, err := allocation.NewAllocationRecord(f.tenantID, applicationID, allocation.ApplicationTypeCustomerPayment,
		inv1.ID, allocation.LineKindInvoice, dec("30"))
	require.NoError(t, err)
	f.records.On("FindByApplication", mock.Anything, f.tenantID, applicationID).
		Return([]allocation.AllocationRecord{*saved}, nil)

	req := OpenEditSessionRequest{
		TenantID:        f.tenantID,
		ApplicationID:   applicationID,
		ApplicationType: allocation.ApplicationTypeCustomerPayment,
		CounterpartyID:  f.counterpartyID,
		LocationID:      f.locationID,
		LimitAmount:     dec("50"),
	}

	t.Run("hydrates saved records", func(t *testing.T) {
		session, err := f.service.OpenEditSession(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, allocation.SessionModeEdit, session.Mode)
		assert.Equal(t, applicationID, session.ApplicationID)
		assertDecimal(t, "30", session.Lines[0].AppliedAmount)
		assertDecimal(t, "30", session.Lines[0].OriginalAllocatedAmount)
		assertDecimal(t, "20", session.UnappliedTotal)

		// the full cap in edit mode is due plus what this application already holds
		updated := f.apply(t, session.ID, allocation.SetLineAmount(inv1.ID, dec("60")))
		assertDecimal(t, "50", updated.Lines[0].AppliedAmount)
	})

	t.Run("re-added line keeps its saved amount", func(t *testing.T) {
		session, err := f.service.OpenEditSession(context.Background(), req)
		require.NoError(t, err)
		f.apply(t, session.ID, allocation.RemoveLine(inv1.ID))
		f.docs.On("FindByID", mock.Anything, f.tenantID, inv1.ID).Return(&inv1, nil).Once()

		updated := f.apply(t, session.ID, allocation.Event{Type: allocation.EventAddLine, LineID: inv1.ID})

		line, ok := updated.Line(inv1.ID)
		require.True(t, ok)
		assertDecimal(t, "30", line.DueAmount)
		assertDecimal(t, "30", line.OriginalAllocatedAmount)
		assertDecimal(t, "0", line.AppliedAmount)
	})

	t.Run("read only session rejects events and saves", func(t *testing.T) {
		viewReq := req
		viewReq.ReadOnly = true
		session, err := f.service.OpenEditSession(context.Background(), viewReq)
		require.NoError(t, err)
		assert.Equal(t, allocation.SessionModeView, session.Mode)

		_, err = f.service.Apply(context.Background(), f.tenantID, session.ID, allocation.ClearAll())
		assert.ErrorIs(t, err, allocation.ErrReadOnlySession)
		_, err = f.service.Save(context.Background(), f.tenantID, session.ID)
		assert.ErrorIs(t, err, allocation.ErrReadOnlySession)
	})

	t.Run("application type must match saved records", func(t *testing.T) {
		wrong := req
		wrong.ApplicationType = allocation.ApplicationTypeVendorPayment
		_, err := f.service.OpenEditSession(context.Background(), wrong)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "saved as CUSTOMER_PAYMENT")
	})

	t.Run("application id is required", func(t *testing.T) {
		missing := req
		missing.ApplicationID = uuid.Nil
		_, err := f.service.OpenEditSession(context.Background(), missing)
		assert.Error(t, err)
	})
}

func TestService_Discard(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog(f.inv1)
	session := f.open(t, "10")

	assert.ErrorIs(t, f.service.Discard(context.Background(), uuid.New(), session.ID), allocation.ErrSessionNotFound)
	require.NoError(t, f.service.Discard(context.Background(), f.tenantID, session.ID))

	_, err := f.service.Get(context.Background(), f.tenantID, session.ID)
	assert.ErrorIs(t, err, allocation.ErrSessionNotFound)
}
