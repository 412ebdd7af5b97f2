package allocation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKind identifies the kind of source document behind an open line
type LineKind string

const (
	LineKindInvoice    LineKind = "INVOICE"     // Customer invoice (receivable)
	LineKindDebitMemo  LineKind = "DEBIT_MEMO"  // Customer debit memo (receivable)
	LineKindVendorBill LineKind = "VENDOR_BILL" // Vendor bill (payable)
)

// IsValid checks if the kind is a valid LineKind
func (k LineKind) IsValid() bool {
	switch k {
	case LineKindInvoice, LineKindDebitMemo, LineKindVendorBill:
		return true
	}
	return false
}

// String returns the string representation of LineKind
func (k LineKind) String() string {
	return string(k)
}

// ApplicationType identifies what is being allocated: a customer payment, a vendor
// payment or a vendor credit. It fixes which document kinds are eligible.
type ApplicationType string

const (
	ApplicationTypeCustomerPayment ApplicationType = "CUSTOMER_PAYMENT"
	ApplicationTypeVendorPayment   ApplicationType = "VENDOR_PAYMENT"
	ApplicationTypeVendorCredit    ApplicationType = "VENDOR_CREDIT"
)

// IsValid checks if the application type is valid
func (t ApplicationType) IsValid() bool {
	switch t {
	case ApplicationTypeCustomerPayment, ApplicationTypeVendorPayment, ApplicationTypeVendorCredit:
		return true
	}
	return false
}

// String returns the string representation of ApplicationType
func (t ApplicationType) String() string {
	return string(t)
}

// IsCredit returns true when the application consumes a credit rather than cash
func (t ApplicationType) IsCredit() bool {
	return t == ApplicationTypeVendorCredit
}

// LineKinds returns the document kinds an application of this type draws on
func (t ApplicationType) LineKinds() []LineKind {
	switch t {
	case ApplicationTypeCustomerPayment:
		return []LineKind{LineKindInvoice, LineKindDebitMemo}
	case ApplicationTypeVendorPayment, ApplicationTypeVendorCredit:
		return []LineKind{LineKindVendorBill}
	}
	return nil
}

// Accepts reports whether a line of the given kind may receive this application
func (t ApplicationType) Accepts(kind LineKind) bool {
	for _, k := range t.LineKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// SessionMode is the mode an allocation session was opened in
type SessionMode string

const (
	SessionModeCreate SessionMode = "CREATE" // New payment/credit application
	SessionModeEdit   SessionMode = "EDIT"   // Existing application, editable
	SessionModeView   SessionMode = "VIEW"   // Existing application, read-only
)

// IsValid checks if the mode is valid
func (m SessionMode) IsValid() bool {
	switch m {
	case SessionModeCreate, SessionModeEdit, SessionModeView:
		return true
	}
	return false
}

// String returns the string representation of SessionMode
func (m SessionMode) String() string {
	return string(m)
}

// ExtendsCap returns true when a line may take back what the saved application held.
func (m SessionMode) ExtendsCap() bool {
	return m == SessionModeEdit || m == SessionModeView
}

// OpenLine is one outstanding receivable or payable eligible for allocation
type OpenLine struct {
	ID              uuid.UUID       `json:"id"`
	Kind            LineKind        `json:"kind"`
	ReferenceNumber string          `json:"reference_number"`
	TransactionDate time.Time       `json:"transaction_date"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	IsSelected      bool            `json:"is_selected"`
	IsUserEntered   bool            `json:"is_user_entered"`
	EntryOrder      int64           `json:"entry_order"` // 0 until the user first types into the line
	IsLocked        bool            `json:"is_locked"`
	// OriginalAllocatedAmount is what the saved application held on this line (edit/view only)
	OriginalAllocatedAmount decimal.Decimal `json:"original_allocated_amount"`
	// EditBound is the clamp bound captured when editing of this line began
	EditBound   *decimal.Decimal `json:"edit_bound,omitempty"`
	Synthesized bool             `json:"synthesized"` // Rebuilt for a document no longer open
}

// LineCap returns the maximum amount the line may receive in the given mode
func LineCap(line OpenLine, mode SessionMode) decimal.Decimal {
	lineCap := line.DueAmount
	if mode.ExtendsCap() {
		lineCap = lineCap.Add(line.OriginalAllocatedAmount)
	}
	if lineCap.IsNegative() {
		return decimal.Zero
	}
	return lineCap
}

// Delta returns how far the applied amount moved from what was saved
func (l OpenLine) Delta() decimal.Decimal {
	return l.AppliedAmount.Sub(l.OriginalAllocatedAmount)
}

// clampAmount bounds amount to [0, upper]
func clampAmount(amount, upper decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if upper.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, upper)
}

// copyLines returns a deep copy of lines
func copyLines(lines []OpenLine) []OpenLine {
	out := make([]OpenLine, len(lines))
	for i, line := range lines {
		out[i] = line
		if line.EditBound != nil {
			bound := *line.EditBound
			out[i].EditBound = &bound
		}
	}
	return out
}
