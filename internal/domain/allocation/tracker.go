package allocation

import "github.com/shopspring/decimal"

// deriveLocks disables every empty line once nothing is left to allocate
func deriveLocks(lines []OpenLine, unapplied decimal.Decimal) {
	exhausted := !unapplied.IsPositive()
	for i := range lines {
		lines[i].IsLocked = exhausted && lines[i].AppliedAmount.IsZero()
	}
}

// editBound is the most a line may be typed up to, captured when editing begins.
// In CREATE it is what the line holds plus what is still unapplied; otherwise it is the
// extended cap so a saved allocation can always be typed back.
func editBound(s Session, line OpenLine) decimal.Decimal {
	if s.Mode.ExtendsCap() {
		return LineCap(line, s.Mode)
	}
	return line.AppliedAmount.Add(s.UnappliedTotal)
}

// beginEdit captures the focus-time bound unless one is already held
func beginEdit(s Session, line OpenLine) OpenLine {
	if line.EditBound == nil {
		bound := editBound(s, line)
		line.EditBound = &bound
	}
	return line
}

// endEdit drops the focus-time bound
func endEdit(line OpenLine) OpenLine {
	line.EditBound = nil
	return line
}

// clearLine resets a line to unchecked with no interaction history
func clearLine(line OpenLine) OpenLine {
	line.AppliedAmount = decimal.Zero
	line.IsSelected = false
	line.IsUserEntered = false
	line.EntryOrder = 0
	line.EditBound = nil
	return line
}

// typeAmount records a keystroke value on line. A zero value unchecks the line but keeps
// the focus bound so the user can keep typing. The returned counter is the next free
// entry order.
func typeAmount(s Session, line OpenLine, amount decimal.Decimal) (OpenLine, int64) {
	next := s.NextEntryOrder
	bound := line.EditBound
	if bound == nil {
		b := editBound(s, line)
		bound = &b
	}
	clamped := clampAmount(amount, *bound)

	if clamped.IsZero() {
		kept := line.EditBound
		line = clearLine(line)
		line.EditBound = kept
		return line, next
	}

	line.AppliedAmount = clamped
	line.IsSelected = true
	if !line.IsUserEntered || line.EntryOrder == 0 {
		line.IsUserEntered = true
		line.EntryOrder = next
		next++
	}
	return line, next
}

// checkLine applies a checkbox tick. A line already holding an amount only gets its
// checkbox set; an empty line needs remaining capacity, except in EDIT where a saved
// allocation is restored as an engine-held amount.
func checkLine(s Session, line OpenLine) (OpenLine, error) {
	if line.AppliedAmount.IsPositive() {
		line.IsSelected = true
		return line, nil
	}
	if s.Mode == SessionModeEdit && line.OriginalAllocatedAmount.IsPositive() {
		line.AppliedAmount = line.OriginalAllocatedAmount
		line.IsUserEntered = false
		line.EntryOrder = 0
		line.IsSelected = true
		return line, nil
	}
	if !s.UnappliedTotal.IsPositive() {
		return line, ErrNoRemainingCapacity
	}
	line.IsSelected = true
	return line, nil
}
