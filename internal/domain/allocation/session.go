package allocation

import (
	"sort"
	"time"

	"github.com/erp/settlement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Warning is a non-fatal problem met while building a session
type Warning struct {
	Kind       LineKind   `json:"kind,omitempty"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Message    string     `json:"message"`
}

// Session is the working state of one payment or credit application.
// It is a value: transitions return a new Session and never modify the receiver.
type Session struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	ApplicationID   uuid.UUID       `json:"application_id"`
	ApplicationType ApplicationType `json:"application_type"`
	Mode            SessionMode     `json:"mode"`
	CounterpartyID  uuid.UUID       `json:"counterparty_id"`
	LocationID      uuid.UUID       `json:"location_id"`
	LimitAmount     decimal.Decimal `json:"limit_amount"`
	Lines           []OpenLine      `json:"lines"`
	AppliedTotal    decimal.Decimal `json:"applied_total"`
	UnappliedTotal  decimal.Decimal `json:"unapplied_total"`
	NextEntryOrder  int64           `json:"next_entry_order"`
	Warnings        []Warning       `json:"warnings,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SessionParams holds the inputs for NewSession
type SessionParams struct {
	TenantID        uuid.UUID
	ApplicationID   uuid.UUID // Generated when zero
	ApplicationType ApplicationType
	Mode            SessionMode // Defaults to CREATE
	CounterpartyID  uuid.UUID
	LocationID      uuid.UUID
	LimitAmount     decimal.Decimal
	Lines           []OpenLine
	Warnings        []Warning
}

// NewSession builds a session and runs the first recalculation.
// Without a counterparty and location the session has no lines.
func NewSession(p SessionParams) (Session, error) {
	if !p.ApplicationType.IsValid() {
		return Session{}, shared.NewDomainError("INVALID_APPLICATION_TYPE", "Invalid application type")
	}
	mode := p.Mode
	if mode == "" {
		mode = SessionModeCreate
	}
	if !mode.IsValid() {
		return Session{}, shared.NewDomainError("INVALID_MODE", "Invalid session mode")
	}
	if p.LimitAmount.IsNegative() {
		return Session{}, ErrInvalidAmount
	}
	appID := p.ApplicationID
	if appID == uuid.Nil {
		appID = uuid.New()
	}

	now := time.Now()
	s := Session{
		ID:              uuid.New(),
		TenantID:        p.TenantID,
		ApplicationID:   appID,
		ApplicationType: p.ApplicationType,
		Mode:            mode,
		CounterpartyID:  p.CounterpartyID,
		LocationID:      p.LocationID,
		LimitAmount:     p.LimitAmount,
		NextEntryOrder:  1,
		Warnings:        append([]Warning(nil), p.Warnings...),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if !s.HasPlacement() {
		s.Lines = []OpenLine{}
		return s.recalculated(s.Lines), nil
	}

	lines := copyLines(p.Lines)
	sortLinesOldestFirst(lines)
	return s.recalculated(lines), nil
}

// HasPlacement reports whether both counterparty and location are set
func (s Session) HasPlacement() bool {
	return s.CounterpartyID != uuid.Nil && s.LocationID != uuid.Nil
}

// IsReadOnly returns true for view sessions
func (s Session) IsReadOnly() bool {
	return s.Mode == SessionModeView
}

// Line returns the line with the given id
func (s Session) Line(id uuid.UUID) (OpenLine, bool) {
	if i := s.lineIndex(id); i >= 0 {
		return s.Lines[i], true
	}
	return OpenLine{}, false
}

// Clone returns a deep copy of the session
func (s Session) Clone() Session {
	c := s
	c.Lines = copyLines(s.Lines)
	c.Warnings = append([]Warning(nil), s.Warnings...)
	return c
}

// Rebase treats the current allocation as saved: every line's applied amount becomes its
// original allocation, document balances move by the saved delta, and interaction state
// is cleared. The result is an EDIT session for which a new save plan is empty.
func (s Session) Rebase() Session {
	next := s.Clone()
	for i := range next.Lines {
		line := &next.Lines[i]
		delta := line.Delta()
		line.DueAmount = decimal.Max(line.DueAmount.Sub(delta), decimal.Zero)
		line.OriginalAllocatedAmount = line.AppliedAmount
		line.IsUserEntered = false
		line.EntryOrder = 0
		line.EditBound = nil
	}
	if next.Mode == SessionModeCreate {
		next.Mode = SessionModeEdit
	}
	next.NextEntryOrder = 1
	next.Version++
	next.UpdatedAt = time.Now()
	return next.recalculated(next.Lines)
}

// recalculated returns a copy holding lines after one engine pass
func (s Session) recalculated(lines []OpenLine) Session {
	res := Recalculate(s.LimitAmount, lines, s.Mode)
	next := s
	next.Lines = res.Lines
	next.AppliedTotal = res.AppliedTotal
	next.UnappliedTotal = res.UnappliedTotal
	next.Warnings = append([]Warning(nil), s.Warnings...)
	return next
}

func (s Session) lineIndex(id uuid.UUID) int {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return i
		}
	}
	return -1
}

// sortLinesOldestFirst stable-sorts lines by transaction date
func sortLinesOldestFirst(lines []OpenLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TransactionDate.Before(lines[j].TransactionDate)
	})
}
