package masterdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdinalToSheetRow(t *testing.T) {
	assert.Equal(t, 2, OrdinalToSheetRow(0))
	assert.Equal(t, 5, OrdinalToSheetRow(3))
}

func TestResolveLayout(t *testing.T) {
	t.Run("canonical header", func(t *testing.T) {
		l := ResolveLayout(DefaultLayout().Header)
		assert.Equal(t, ColEndDate, l.EndDate)
		assert.Equal(t, ColSpending, l.Spending)
		assert.Equal(t, ColProgress, l.Progress)
		assert.Equal(t, ColLastUpdated, l.LastUpdated)
		assert.True(t, l.HasLastUpdated())
		assert.Equal(t, "Progress as of Oct 2025", l.ColumnName(ColProgress))
	})

	t.Run("without last updated column", func(t *testing.T) {
		l := ResolveLayout([]string{"Outcome", "Sub-Output", "Agency", "Activity", "End date", "Spending (USD)", "Progress"})
		assert.False(t, l.HasLastUpdated())
		assert.Equal(t, 7, l.Width())
	})

	t.Run("reordered header", func(t *testing.T) {
		l := ResolveLayout([]string{"Agency", "Progress note", "Outcome"})
		assert.Equal(t, 1, l.Agency)
		assert.Equal(t, 2, l.Progress)
		assert.Equal(t, 3, l.Outcome)
		assert.Equal(t, ColEndDate, l.EndDate, "missing editable column falls back to canonical position")
		assert.Equal(t, "", l.ColumnName(ColEndDate))
	})
	t.Run("fallback skips a taken position", func(t *testing.T) {
		l := ResolveLayout([]string{"Outcome", "Sub-Output", "Agency", "Activity", "Last Updated", "Spending", "Progress"})
		assert.Equal(t, 5, l.LastUpdated)
		assert.Zero(t, l.EndDate, "End date stays absent rather than sharing column 5")
		assert.Equal(t, ColSpending, l.Spending)
		assert.Equal(t, ColProgress, l.Progress)
	})
}
