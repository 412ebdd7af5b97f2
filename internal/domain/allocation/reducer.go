package allocation

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies a session transition
type EventType string

const (
	EventSetLimit      EventType = "SET_LIMIT"
	EventToggleLine    EventType = "TOGGLE_LINE"
	EventBeginLineEdit EventType = "BEGIN_LINE_EDIT"
	EventSetLineAmount EventType = "SET_LINE_AMOUNT"
	EventEndLineEdit   EventType = "END_LINE_EDIT"
	EventSelectAll     EventType = "SELECT_ALL"
	EventClearAll      EventType = "CLEAR_ALL"
	EventAddLine       EventType = "ADD_LINE"
	EventRemoveLine    EventType = "REMOVE_LINE"
)

// IsValid checks if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventSetLimit, EventToggleLine, EventBeginLineEdit, EventSetLineAmount, EventEndLineEdit,
		EventSelectAll, EventClearAll, EventAddLine, EventRemoveLine:
		return true
	}
	return false
}

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}

// Event is one user interaction forwarded by the presenter
type Event struct {
	Type    EventType       `json:"type"`
	LineID  uuid.UUID       `json:"line_id,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Checked bool            `json:"checked"`
	Line    *OpenLine       `json:"line,omitempty"`
}

func SetLimit(amount decimal.Decimal) Event {
	return Event{Type: EventSetLimit, Amount: amount}
}

func ToggleLine(id uuid.UUID, checked bool) Event {
	return Event{Type: EventToggleLine, LineID: id, Checked: checked}
}

func BeginLineEdit(id uuid.UUID) Event {
	return Event{Type: EventBeginLineEdit, LineID: id}
}

func SetLineAmount(id uuid.UUID, amount decimal.Decimal) Event {
	return Event{Type: EventSetLineAmount, LineID: id, Amount: amount}
}

func EndLineEdit(id uuid.UUID) Event {
	return Event{Type: EventEndLineEdit, LineID: id}
}

func SelectAll() Event {
	return Event{Type: EventSelectAll}
}

func ClearAll() Event {
	return Event{Type: EventClearAll}
}

func AddLine(line OpenLine) Event {
	return Event{Type: EventAddLine, LineID: line.ID, Line: &line}
}

func RemoveLine(id uuid.UUID) Event {
	return Event{Type: EventRemoveLine, LineID: id}
}

// Reduce applies event to s and returns the next session. On rejection s is returned
// unchanged together with the error.
func Reduce(s Session, event Event) (Session, error) {
	if s.IsReadOnly() {
		return s, ErrReadOnlySession
	}
	if !s.HasPlacement() {
		return s, ErrPlacementRequired
	}

	var (
		next Session
		err  error
	)
	switch event.Type {
	case EventSetLimit:
		next, err = reduceSetLimit(s, event.Amount)
	case EventToggleLine:
		next, err = reduceToggle(s, event.LineID, event.Checked)
	case EventBeginLineEdit:
		next, err = reduceLine(s, event.LineID, func(line OpenLine) OpenLine {
			return beginEdit(s, line)
		})
	case EventSetLineAmount:
		next, err = reduceSetLineAmount(s, event.LineID, event.Amount)
	case EventEndLineEdit:
		next, err = reduceLine(s, event.LineID, endEdit)
	case EventSelectAll:
		next, err = reduceSelectAll(s)
	case EventClearAll:
		lines := copyLines(s.Lines)
		for i := range lines {
			lines[i] = clearLine(lines[i])
		}
		next = s.recalculated(lines)
	case EventAddLine:
		next, err = reduceAddLine(s, event.Line)
	case EventRemoveLine:
		next, err = reduceRemoveLine(s, event.LineID)
	default:
		return s, ErrInvalidEvent
	}
	if err != nil {
		return s, err
	}

	next.Version = s.Version + 1
	next.UpdatedAt = time.Now()
	return next, nil
}

func reduceSetLimit(s Session, amount decimal.Decimal) (Session, error) {
	if amount.IsNegative() {
		return s, ErrInvalidAmount
	}
	next := s.Clone()
	next.LimitAmount = amount
	return next.recalculated(next.Lines), nil
}

func reduceToggle(s Session, id uuid.UUID, checked bool) (Session, error) {
	i := s.lineIndex(id)
	if i < 0 {
		return s, ErrLineNotFound
	}
	lines := copyLines(s.Lines)
	if !checked {
		lines[i] = clearLine(lines[i])
		return s.recalculated(lines), nil
	}
	if !s.LimitAmount.IsPositive() {
		return s, s.limitRequired()
	}
	line, err := checkLine(s, lines[i])
	if err != nil {
		return s, err
	}
	lines[i] = line
	return s.recalculated(lines), nil
}

func reduceSetLineAmount(s Session, id uuid.UUID, amount decimal.Decimal) (Session, error) {
	i := s.lineIndex(id)
	if i < 0 {
		return s, ErrLineNotFound
	}
	if amount.IsNegative() {
		return s, ErrInvalidAmount
	}
	if !s.LimitAmount.IsPositive() {
		return s, s.limitRequired()
	}
	lines := copyLines(s.Lines)
	line, nextOrder := typeAmount(s, lines[i], amount)
	lines[i] = line
	next := s.recalculated(lines)
	next.NextEntryOrder = nextOrder
	return next, nil
}

// reduceLine changes one line without touching cash
func reduceLine(s Session, id uuid.UUID, change func(OpenLine) OpenLine) (Session, error) {
	i := s.lineIndex(id)
	if i < 0 {
		return s, ErrLineNotFound
	}
	lines := copyLines(s.Lines)
	lines[i] = change(lines[i])
	return s.recalculated(lines), nil
}

func reduceSelectAll(s Session) (Session, error) {
	if !s.LimitAmount.IsPositive() {
		return s, s.limitRequired()
	}
	lines := copyLines(s.Lines)
	for i := range lines {
		line := &lines[i]
		if line.AppliedAmount.IsPositive() {
			continue
		}
		if s.Mode == SessionModeEdit && line.OriginalAllocatedAmount.IsPositive() {
			line.AppliedAmount = line.OriginalAllocatedAmount
		}
		line.IsSelected = true
	}
	return s.recalculated(lines), nil
}

// limitRequired names the amount the user still has to enter
func (s Session) limitRequired() error {
	if s.ApplicationType.IsCredit() {
		return ErrCreditLimitRequired
	}
	return ErrLimitRequired
}

func reduceAddLine(s Session, line *OpenLine) (Session, error) {
	if line == nil || line.ID == uuid.Nil {
		return s, ErrInvalidEvent
	}
	if !s.ApplicationType.Accepts(line.Kind) {
		return s, ErrKindNotAccepted
	}
	if s.lineIndex(line.ID) >= 0 {
		return s, ErrDuplicateLine
	}
	if line.DueAmount.IsNegative() || line.OriginalAllocatedAmount.IsNegative() {
		return s, ErrInvalidAmount
	}

	added := clearLine(*line)
	added.OriginalAllocatedAmount = line.OriginalAllocatedAmount
	added.Synthesized = line.Synthesized

	// insert after every line dated on or before the new one
	pos := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].TransactionDate.After(added.TransactionDate)
	})
	lines := make([]OpenLine, 0, len(s.Lines)+1)
	lines = append(lines, copyLines(s.Lines[:pos])...)
	lines = append(lines, added)
	lines = append(lines, copyLines(s.Lines[pos:])...)
	return s.recalculated(lines), nil
}

func reduceRemoveLine(s Session, id uuid.UUID) (Session, error) {
	i := s.lineIndex(id)
	if i < 0 {
		return s, ErrLineNotFound
	}
	lines := make([]OpenLine, 0, len(s.Lines)-1)
	lines = append(lines, copyLines(s.Lines[:i])...)
	lines = append(lines, copyLines(s.Lines[i+1:])...)
	return s.recalculated(lines), nil
}
