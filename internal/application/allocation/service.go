// Package allocation hosts the application service driving allocation sessions.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/erp/settlement/internal/domain/shared"
	"github.com/erp/settlement/internal/infrastructure/logger"
	"github.com/erp/settlement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	spanService       = "allocation"
	defaultSessionTTL = 2 * time.Hour
)

// DocumentSource is what the service reads documents through
type DocumentSource interface {
	allocation.DocumentReader
	allocation.DocumentLookup
}

// Service opens, mutates and saves allocation sessions
type Service struct {
	documents  DocumentSource
	catalog    *allocation.Catalog
	reconciler *allocation.Reconciler
	records    allocation.AllocationRecordRepository
	store      allocation.SessionStore
	sessionTTL time.Duration
	logger     *zap.Logger
	metrics    *telemetry.AllocationMetrics
}

// Option is a functional option for configuring the service
type Option func(*Service)

// WithLogger sets the base logger. Request-scoped fields are added from the context.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the business metrics recorder
func WithMetrics(m *telemetry.AllocationMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSessionTTL sets how long an idle session is kept
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// NewService creates a new allocation Service
func NewService(
	documents DocumentSource,
	records allocation.AllocationRecordRepository,
	store allocation.SessionStore,
	opts ...Option,
) *Service {
	s := &Service{
		documents:  documents,
		records:    records,
		store:      store,
		sessionTTL: defaultSessionTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.catalog = allocation.NewCatalog(documents, allocation.WithCatalogLogger(s.logger.Named("allocation.catalog")))
	s.reconciler = allocation.NewReconciler(documents, allocation.WithReconcilerLogger(s.logger.Named("allocation.reconciler")))
	s.logger = s.logger.Named("allocation.service")
	return s
}

// OpenSession loads the open lines of a placement and starts a CREATE session
func (s *Service) OpenSession(ctx context.Context, req OpenSessionRequest) (*allocation.Session, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "open_session",
		telemetry.WithAttribute(telemetry.SpanAttrApplicationType, req.ApplicationType.String()),
	)
	defer span.End()

	if !req.ApplicationType.IsValid() {
		err := shared.NewDomainError("INVALID_APPLICATION_TYPE", fmt.Sprintf("Invalid application type: %s", req.ApplicationType))
		telemetry.RecordError(span, err)
		return nil, err
	}

	catalog, err := s.catalog.Load(ctx, req.TenantID, req.CounterpartyID, req.LocationID, req.ApplicationType.LineKinds())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load open lines: %w", err)
	}

	session, err := allocation.NewSession(allocation.SessionParams{
		TenantID:        req.TenantID,
		ApplicationType: req.ApplicationType,
		Mode:            allocation.SessionModeCreate,
		CounterpartyID:  req.CounterpartyID,
		LocationID:      req.LocationID,
		LimitAmount:     req.LimitAmount,
		Lines:           catalog.Lines,
		Warnings:        catalog.Warnings,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return s.start(ctx, session)
}

// OpenEditSession reopens a saved application, hydrating its records into the live lines.
// ReadOnly requests open a VIEW session that rejects every event.
func (s *Service) OpenEditSession(ctx context.Context, req OpenEditSessionRequest) (*allocation.Session, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "open_edit_session",
		telemetry.WithAttribute(telemetry.SpanAttrApplicationID, req.ApplicationID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrApplicationType, req.ApplicationType.String()),
	)
	defer span.End()

	if req.ApplicationID == uuid.Nil {
		err := shared.NewDomainError("INVALID_APPLICATION", "Application ID is required to edit an allocation")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !req.ApplicationType.IsValid() {
		err := shared.NewDomainError("INVALID_APPLICATION_TYPE", fmt.Sprintf("Invalid application type: %s", req.ApplicationType))
		telemetry.RecordError(span, err)
		return nil, err
	}

	records, err := s.records.FindByApplication(ctx, req.TenantID, req.ApplicationID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load allocation records: %w", err)
	}
	for _, rec := range records {
		if rec.ApplicationType != req.ApplicationType {
			err := shared.NewDomainError("APPLICATION_TYPE_MISMATCH",
				fmt.Sprintf("Application %s was saved as %s", req.ApplicationID, rec.ApplicationType))
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	catalog, err := s.catalog.Load(ctx, req.TenantID, req.CounterpartyID, req.LocationID, req.ApplicationType.LineKinds())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load open lines: %w", err)
	}

	lines, warnings := catalog.Lines, catalog.Warnings
	if len(catalog.Lines) > 0 || len(records) > 0 {
		var hydrateWarnings []allocation.Warning
		lines, hydrateWarnings = s.reconciler.Hydrate(ctx, req.TenantID, catalog.Lines, records)
		warnings = append(warnings, hydrateWarnings...)
	}

	mode := allocation.SessionModeEdit
	if req.ReadOnly {
		mode = allocation.SessionModeView
	}
	session, err := allocation.NewSession(allocation.SessionParams{
		TenantID:        req.TenantID,
		ApplicationID:   req.ApplicationID,
		ApplicationType: req.ApplicationType,
		Mode:            mode,
		CounterpartyID:  req.CounterpartyID,
		LocationID:      req.LocationID,
		LimitAmount:     req.LimitAmount,
		Lines:           lines,
		Warnings:        warnings,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "saved_records", len(records))

	return s.start(ctx, session)
}

func (s *Service) start(ctx context.Context, session allocation.Session) (*allocation.Session, error) {
	if err := s.store.Put(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store allocation session: %w", err)
	}
	s.metrics.SessionOpened(ctx, session.ApplicationType.String(), session.Mode.String())

	log := logger.FromContextOr(logger.WithSessionID(ctx, session.ID.String()), s.logger)
	log.Info("Allocation session opened",
		zap.String("application_id", session.ApplicationID.String()),
		zap.String("application_type", session.ApplicationType.String()),
		zap.String("mode", session.Mode.String()),
		zap.Int("line_count", len(session.Lines)),
		zap.Int("warning_count", len(session.Warnings)),
	)
	for _, w := range session.Warnings {
		log.Warn("Allocation session degraded", zap.String("kind", w.Kind.String()), zap.String("message", w.Message))
	}
	return &session, nil
}

// Get returns the current state of a session owned by tenantID
func (s *Service) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*allocation.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TenantID != tenantID {
		return nil, allocation.ErrSessionNotFound
	}
	return session, nil
}

// Apply reduces one event into the session and stores the result.
// A rejected event leaves the stored session untouched.
func (s *Service) Apply(ctx context.Context, tenantID, sessionID uuid.UUID, event allocation.Event) (*allocation.Session, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "apply",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrEventType, event.Type.String()),
	)
	defer span.End()

	current, err := s.Get(ctx, tenantID, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if event.Type == allocation.EventAddLine {
		event, err = s.resolveAddedLine(ctx, *current, event)
		if err != nil {
			s.metrics.EventRejected(ctx, event.Type.String(), shared.CodeOf(err))
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var (
		next      allocation.Session
		reduceErr error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.AllocationLabels("apply", current.ApplicationType.String()), func(context.Context) {
		next, reduceErr = allocation.Reduce(*current, event)
	})
	if reduceErr != nil {
		s.metrics.EventRejected(ctx, event.Type.String(), shared.CodeOf(reduceErr))
		telemetry.RecordError(span, reduceErr)
		logger.FromContextOr(logger.WithSessionID(ctx, sessionID.String()), s.logger).Debug("Allocation event rejected",
			zap.String("event_type", event.Type.String()),
			zap.Error(reduceErr),
		)
		return nil, reduceErr
	}

	if err := s.store.Put(ctx, next, s.sessionTTL); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to store allocation session: %w", err)
	}
	s.metrics.EventApplied(ctx, event.Type.String())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAppliedTotal, next.AppliedTotal.String(),
		telemetry.SpanAttrUnappliedTotal, next.UnappliedTotal.String(),
	)
	return &next, nil
}

// resolveAddedLine replaces the line carried by an ADD_LINE event with the stored document.
// Only documents of the session's counterparty and location may be added.
func (s *Service) resolveAddedLine(ctx context.Context, session allocation.Session, event allocation.Event) (allocation.Event, error) {
	id := event.LineID
	if id == uuid.Nil && event.Line != nil {
		id = event.Line.ID
	}
	if id == uuid.Nil {
		return event, allocation.ErrInvalidEvent
	}
	if session.IsReadOnly() {
		return event, allocation.ErrReadOnlySession
	}
	if !session.HasPlacement() {
		return event, allocation.ErrPlacementRequired
	}

	doc, err := s.documents.FindByID(ctx, session.TenantID, id)
	if err != nil {
		return event, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return event, allocation.ErrDocumentNotFound
	}
	if doc.CounterpartyID != session.CounterpartyID || doc.LocationID != session.LocationID {
		return event, allocation.ErrForeignDocument
	}
	if !session.ApplicationType.Accepts(doc.Kind) {
		return event, allocation.ErrKindNotAccepted
	}

	line := doc.ToOpenLine()
	line.Synthesized = !doc.IsOpen()
	if session.Mode == allocation.SessionModeEdit {
		records, err := s.records.FindByApplication(ctx, session.TenantID, session.ApplicationID)
		if err != nil {
			return event, fmt.Errorf("failed to load allocation records: %w", err)
		}
		for _, rec := range records {
			if rec.DocumentID == doc.ID {
				line.OriginalAllocatedAmount = line.OriginalAllocatedAmount.Add(rec.Amount)
			}
		}
	}
	return allocation.AddLine(line), nil
}

// Save persists the session's allocations and rebases it onto what was written,
// so saving again without changes writes nothing.
func (s *Service) Save(ctx context.Context, tenantID, sessionID uuid.UUID) (*SaveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "save",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID.String()),
	)
	defer span.End()

	session, err := s.Get(ctx, tenantID, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if session.IsReadOnly() {
		telemetry.RecordError(span, allocation.ErrReadOnlySession)
		return nil, allocation.ErrReadOnlySession
	}
	log := logger.FromContextOr(logger.WithSessionID(ctx, sessionID.String()), s.logger)

	start := time.Now()
	plan, err := s.persist(ctx, *session)
	s.metrics.SaveCompleted(ctx, session.ApplicationType.String(), time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to save allocation", zap.Error(err))
		return nil, err
	}

	rebased := session.Rebase()
	if err := s.store.Put(ctx, rebased, s.sessionTTL); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("allocation saved but session could not be stored: %w", err)
	}

	telemetry.AddEvent(span, "allocation_saved",
		"creates", len(plan.Creates),
		"updates", len(plan.Updates),
		"deletes", len(plan.Deletes),
	)
	log.Info("Allocation saved",
		zap.String("application_id", plan.ApplicationID.String()),
		zap.Int("creates", len(plan.Creates)),
		zap.Int("updates", len(plan.Updates)),
		zap.Int("deletes", len(plan.Deletes)),
		zap.String("applied_total", plan.AppliedTotal.String()),
	)
	return &SaveResult{Plan: plan, Session: rebased}, nil
}

func (s *Service) persist(ctx context.Context, session allocation.Session) (allocation.SavePlan, error) {
	records, err := s.records.FindByApplication(ctx, session.TenantID, session.ApplicationID)
	if err != nil {
		return allocation.SavePlan{}, fmt.Errorf("failed to load allocation records: %w", err)
	}
	plan := s.reconciler.Plan(session, records)
	if plan.IsEmpty() {
		return plan, nil
	}
	if err := s.records.ApplyPlan(ctx, session.TenantID, plan); err != nil {
		return allocation.SavePlan{}, fmt.Errorf("failed to apply allocation plan: %w", err)
	}
	return plan, nil
}

// Discard drops a session without saving
func (s *Service) Discard(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete allocation session: %w", err)
	}
	return nil
}
