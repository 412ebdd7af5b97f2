package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculate(t *testing.T) {
	t.Run("checked lines fill oldest first up to due", func(t *testing.T) {
		lines := []OpenLine{
			newLine("INV-1", "100", day(1)),
			newLine("INV-2", "50", day(2)),
			newLine("INV-3", "30", day(3)),
		}
		for i := range lines {
			lines[i].IsSelected = true
		}

		res := Recalculate(dec("120"), lines, SessionModeCreate)

		assertApplied(t, res.Lines, "100", "20", "0")
		assertDecimal(t, "120", res.AppliedTotal)
		assertDecimal(t, "0", res.UnappliedTotal)
		assert.True(t, res.Lines[1].IsSelected)
		assert.False(t, res.Lines[2].IsSelected)
		assert.False(t, res.Lines[0].IsLocked)
		assert.True(t, res.Lines[2].IsLocked)
	})

	t.Run("oldest first follows dates not input order", func(t *testing.T) {
		newer := newLine("INV-NEW", "100", day(5))
		older := newLine("INV-OLD", "100", day(1))
		newer.IsSelected = true
		older.IsSelected = true

		res := Recalculate(dec("60"), []OpenLine{newer, older}, SessionModeCreate)

		assertApplied(t, res.Lines, "0", "60")
	})

	t.Run("equal dates keep input order", func(t *testing.T) {
		a := newLine("A", "50", day(1))
		b := newLine("B", "50", day(1))
		a.IsSelected = true
		b.IsSelected = true

		res := Recalculate(dec("70"), []OpenLine{a, b}, SessionModeCreate)

		assertApplied(t, res.Lines, "50", "20")
	})

	t.Run("typed amount wins over older checked line", func(t *testing.T) {
		a := newLine("A", "100", day(1))
		a.IsSelected = true
		b := newLine("B", "100", day(2))
		b.AppliedAmount = dec("100")
		b.IsUserEntered = true
		b.EntryOrder = 1

		res := Recalculate(dec("100"), []OpenLine{a, b}, SessionModeCreate)

		assertApplied(t, res.Lines, "0", "100")
		assert.False(t, res.Lines[0].IsSelected)
		assert.True(t, res.Lines[0].IsLocked)
	})

	t.Run("typed lines are honored in entry order", func(t *testing.T) {
		a := newLine("A", "100", day(1))
		a.AppliedAmount = dec("80")
		a.IsUserEntered = true
		a.EntryOrder = 2
		b := newLine("B", "100", day(2))
		b.AppliedAmount = dec("80")
		b.IsUserEntered = true
		b.EntryOrder = 1

		res := Recalculate(dec("100"), []OpenLine{a, b}, SessionModeCreate)

		assertApplied(t, res.Lines, "20", "80")
	})

	t.Run("sticky amount is kept before fresh selections", func(t *testing.T) {
		a := newLine("A", "100", day(1))
		a.IsSelected = true
		b := newLine("B", "100", day(2))
		b.AppliedAmount = dec("30")
		b.IsSelected = true

		res := Recalculate(dec("100"), []OpenLine{a, b}, SessionModeCreate)

		assertApplied(t, res.Lines, "70", "30")
	})

	t.Run("sticky amount shrinks when the limit drops", func(t *testing.T) {
		a := newLine("A", "100", day(1))
		a.AppliedAmount = dec("60")
		b := newLine("B", "100", day(2))
		b.AppliedAmount = dec("40")

		res := Recalculate(dec("70"), []OpenLine{a, b}, SessionModeCreate)

		assertApplied(t, res.Lines, "60", "10")
		assertDecimal(t, "0", res.UnappliedTotal)
	})

	t.Run("requests are clamped to due in create mode", func(t *testing.T) {
		a := newLine("A", "50", day(1))
		a.AppliedAmount = dec("80")
		a.IsUserEntered = true
		a.EntryOrder = 1

		res := Recalculate(dec("200"), []OpenLine{a}, SessionModeCreate)

		assertApplied(t, res.Lines, "50")
		assertDecimal(t, "150", res.UnappliedTotal)
		assert.False(t, res.Lines[0].IsLocked)
	})

	t.Run("edit mode cap includes the saved allocation", func(t *testing.T) {
		a := newLine("A", "0", day(1))
		a.OriginalAllocatedAmount = dec("50")
		a.AppliedAmount = dec("80")
		a.IsUserEntered = true
		a.EntryOrder = 1

		res := Recalculate(dec("100"), []OpenLine{a}, SessionModeEdit)

		assertApplied(t, res.Lines, "50")
	})

	t.Run("fresh selection targets due not the extended cap", func(t *testing.T) {
		a := newLine("A", "20", day(1))
		a.OriginalAllocatedAmount = dec("50")
		a.IsSelected = true

		res := Recalculate(dec("100"), []OpenLine{a}, SessionModeEdit)

		assertApplied(t, res.Lines, "20")
	})

	t.Run("negative limit allocates nothing", func(t *testing.T) {
		a := newLine("A", "20", day(1))
		a.IsSelected = true

		res := Recalculate(dec("-5"), []OpenLine{a}, SessionModeCreate)

		assertApplied(t, res.Lines, "0")
		assertDecimal(t, "0", res.UnappliedTotal)
		assert.True(t, res.Lines[0].IsLocked)
	})

	t.Run("no lines leaves everything unapplied", func(t *testing.T) {
		res := Recalculate(dec("75"), nil, SessionModeCreate)

		assert.Empty(t, res.Lines)
		assertDecimal(t, "0", res.AppliedTotal)
		assertDecimal(t, "75", res.UnappliedTotal)
	})

	t.Run("input lines are not modified", func(t *testing.T) {
		a := newLine("A", "100", day(1))
		a.IsSelected = true
		bound := dec("40")
		a.EditBound = &bound
		input := []OpenLine{a}

		res := Recalculate(dec("100"), input, SessionModeCreate)
		*res.Lines[0].EditBound = dec("1")

		assertDecimal(t, "0", input[0].AppliedAmount)
		assertDecimal(t, "40", *input[0].EditBound)
	})
}

func TestRecalculate_Idempotent(t *testing.T) {
	a := newLine("A", "100", day(1))
	a.IsSelected = true
	b := newLine("B", "60", day(2))
	b.AppliedAmount = dec("45")
	b.IsUserEntered = true
	b.EntryOrder = 1
	c := newLine("C", "80", day(3))
	c.AppliedAmount = dec("25")
	d := newLine("D", "10", day(4))
	d.IsSelected = true

	for _, mode := range []SessionMode{SessionModeCreate, SessionModeEdit} {
		t.Run(mode.String(), func(t *testing.T) {
			first := Recalculate(dec("150"), []OpenLine{a, b, c, d}, mode)
			second := Recalculate(dec("150"), first.Lines, mode)

			require.Len(t, second.Lines, len(first.Lines))
			assert.True(t, first.AppliedTotal.Equal(second.AppliedTotal))
			assert.True(t, first.UnappliedTotal.Equal(second.UnappliedTotal))
			for i := range first.Lines {
				assert.Equal(t, first.Lines[i].ID, second.Lines[i].ID)
				assert.True(t, first.Lines[i].AppliedAmount.Equal(second.Lines[i].AppliedAmount))
				assert.Equal(t, first.Lines[i].IsSelected, second.Lines[i].IsSelected)
				assert.Equal(t, first.Lines[i].IsLocked, second.Lines[i].IsLocked)
				assert.Equal(t, first.Lines[i].IsUserEntered, second.Lines[i].IsUserEntered)
				assert.Equal(t, first.Lines[i].EntryOrder, second.Lines[i].EntryOrder)
			}
		})
	}
}

func TestLineCap(t *testing.T) {
	line := newLine("A", "30", day(1))
	line.OriginalAllocatedAmount = dec("20")

	assertDecimal(t, "30", LineCap(line, SessionModeCreate))
	assertDecimal(t, "50", LineCap(line, SessionModeEdit))
	assertDecimal(t, "50", LineCap(line, SessionModeView))

	line.DueAmount = dec("-40")
	assertDecimal(t, "0", LineCap(line, SessionModeEdit))
}
