package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
)

func TestRowsToTableData(t *testing.T) {
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	spend := 1500.5
	rows := []masterdata.Row{
		{Ordinal: 3, Outcome: "O1", SubOutput: "S1", Agency: "UNDP", Activity: "Wells", EndDate: &end, Spending: &spend, Progress: "On track"},
		{Ordinal: 7, Agency: "UNDP", Activity: "Roads"},
	}

	data := RowsToTableData(rows, false)
	assert.Len(t, data.Headers, len(data.ColumnAlignment))
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"3", "UNDP", "Wells", "2025-12-31", "1500.5", "On track", ""}, data.Rows[0])
	assert.Equal(t, []string{"7", "UNDP", "Roads", "", "", "", ""}, data.Rows[1])

	wide := RowsToTableData(rows, true)
	assert.Equal(t, "Outcome", wide.Headers[1])
	assert.Len(t, wide.Headers, len(wide.ColumnAlignment))
	assert.Equal(t, []string{"3", "O1", "S1", "UNDP"}, wide.Rows[0][:4])
}

func TestAuditToTableData(t *testing.T) {
	ts := time.Date(2025, 11, 3, 14, 5, 9, 0, time.UTC)
	data := AuditToTableData([]audit.Record{{Name: "Ana", Email: "ana@undp.org", Agency: "UNDP", RowIndex: 3, Timestamp: &ts, Action: "Row edited"}})
	assert.Equal(t, audit.Header, data.Headers)
	assert.Equal(t, [][]string{{"Ana", "ana@undp.org", "UNDP", "3", "2025-11-03 14:05:09", "Row edited"}}, data.Rows)
}

func TestPlansToTableData(t *testing.T) {
	data := PlansToTableData([]reconcile.RowPlan{{
		Ordinal:  3,
		SheetRow: 5,
		Writes: []reconcile.CellWrite{
			{Field: masterdata.FieldProgress, Col: 7, Value: "Completed"},
			{Field: masterdata.FieldEndDate, Col: 5, Value: ""},
		},
	}})
	assert.Equal(t, [][]string{
		{"3", "5", "7", "progress", "Completed"},
		{"3", "5", "5", "end_date", ""},
	}, data.Rows)
}

func TestChangesToTableData(t *testing.T) {
	ts := time.Date(2025, 11, 3, 14, 5, 9, 0, time.UTC)
	data := ChangesToTableData([]reconcile.Change{{Ordinal: 3, Timestamp: ts, Action: reconcile.ActionEdited}})
	assert.Equal(t, [][]string{{"3", "2025-11-03 14:05:09", "Row edited"}}, data.Rows)
}
