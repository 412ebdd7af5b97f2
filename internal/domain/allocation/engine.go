package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Result is the outcome of one recalculation pass
type Result struct {
	Lines          []OpenLine
	AppliedTotal   decimal.Decimal
	UnappliedTotal decimal.Decimal
}

// Recalculate distributes limit over lines and returns the new per-line applied amounts.
//
// Cash is consumed in three phases, each a single greedy pass:
//
//  1. Typed lines (user-entered with a positive request), in the order the user typed
//     them, then oldest-first.
//  2. Sticky lines (engine-assigned amounts from a previous pass), oldest-first.
//  3. Lines that are checked but hold nothing yet, oldest-first, up to their due amount.
//
// Requests are clamped to LineCap before any cash moves, so no line can exceed its cap.
// The input slice is not modified.
func Recalculate(limit decimal.Decimal, lines []OpenLine, mode SessionMode) Result {
	if limit.IsNegative() {
		limit = decimal.Zero
	}

	out := copyLines(lines)
	n := len(out)
	requested := make([]decimal.Decimal, n)
	applied := make([]decimal.Decimal, n)
	claimed := make([]bool, n)
	for i := range out {
		requested[i] = clampAmount(out[i].AppliedAmount, LineCap(out[i], mode))
		applied[i] = decimal.Zero
	}

	cash := limit
	consume := func(order []int, target func(i int) decimal.Decimal) {
		for _, i := range order {
			claimed[i] = true
			if !cash.IsPositive() {
				continue
			}
			want := target(i)
			if !want.IsPositive() {
				continue
			}
			used := decimal.Min(want, cash)
			applied[i] = applied[i].Add(used)
			cash = cash.Sub(used)
		}
	}

	// Phase A: explicit user entries win first
	typed := lineIndexes(n, func(i int) bool {
		return out[i].IsUserEntered && requested[i].IsPositive()
	})
	sort.SliceStable(typed, func(a, b int) bool {
		la, lb := out[typed[a]], out[typed[b]]
		if la.EntryOrder != lb.EntryOrder {
			return la.EntryOrder < lb.EntryOrder
		}
		return la.TransactionDate.Before(lb.TransactionDate)
	})
	consume(typed, func(i int) decimal.Decimal {
		return requested[i]
	})

	// Phase B: keep what the engine assigned last time
	sticky := lineIndexes(n, func(i int) bool {
		return !claimed[i] && !out[i].IsUserEntered && out[i].AppliedAmount.IsPositive()
	})
	sortOldestFirst(out, sticky)
	consume(sticky, func(i int) decimal.Decimal {
		return decimal.Max(requested[i].Sub(applied[i]), decimal.Zero)
	})

	// Phase C: freshly checked lines fill up to their due amount, never the extended cap
	fresh := lineIndexes(n, func(i int) bool {
		return !claimed[i] && out[i].IsSelected
	})
	sortOldestFirst(out, fresh)
	consume(fresh, func(i int) decimal.Decimal {
		return decimal.Max(out[i].DueAmount.Sub(applied[i]), decimal.Zero)
	})

	appliedTotal := decimal.Zero
	for i := range out {
		out[i].AppliedAmount = applied[i]
		out[i].IsSelected = applied[i].IsPositive()
		appliedTotal = appliedTotal.Add(applied[i])
	}
	unapplied := decimal.Max(limit.Sub(appliedTotal), decimal.Zero)
	deriveLocks(out, unapplied)

	return Result{
		Lines:          out,
		AppliedTotal:   appliedTotal,
		UnappliedTotal: unapplied,
	}
}

// lineIndexes returns the ascending indexes in [0, n) matching keep
func lineIndexes(n int, keep func(i int) bool) []int {
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// sortOldestFirst orders idx by transaction date; ties keep input order
func sortOldestFirst(lines []OpenLine, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		return lines[idx[a]].TransactionDate.Before(lines[idx[b]].TransactionDate)
	})
}
