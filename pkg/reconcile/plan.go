package reconcile

import (
	"fmt"
	"slices"
	"time"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// CellWrite is one planned cell update.
type CellWrite struct {
	Field string `json:"field"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// RowPlan lists the writes for one changed row.
type RowPlan struct {
	Ordinal  int         `json:"ordinal"`
	SheetRow int         `json:"sheet_row"`
	Changed  []string    `json:"changed"`
	Locked   []string    `json:"locked,omitempty"`
	Writes   []CellWrite `json:"writes"`
}

// Plan compares edited against snapshot and returns the writes a reconcile
// at time now would issue. Unchanged rows produce no plan.
//
// edited and snapshot must hold the same ordinals in the same order.
func Plan(edited, snapshot masterdata.Table, now time.Time) ([]RowPlan, error) {
	if err := checkAligned(edited, snapshot); err != nil {
		return nil, err
	}

	layout := snapshot.Layout
	if layout.Width() == 0 {
		layout = masterdata.DefaultLayout()
	}

	var plans []RowPlan
	for i, row := range edited.Rows {
		orig := snapshot.Rows[i]
		changed := row.Diff(orig)
		if len(changed) == 0 {
			continue
		}
		plan := RowPlan{
			Ordinal:  row.Ordinal,
			SheetRow: masterdata.OrdinalToSheetRow(row.Ordinal),
			Changed:  changed,
		}
		for _, f := range changed {
			if slices.Contains(masterdata.LockedFields, f) {
				plan.Locked = append(plan.Locked, f)
			}
		}
		for _, w := range []CellWrite{
			{Field: masterdata.FieldEndDate, Col: layout.EndDate, Value: masterdata.FormatDate(row.EndDate)},
			{Field: masterdata.FieldSpending, Col: layout.Spending, Value: masterdata.FormatSpending(row.Spending)},
			{Field: masterdata.FieldProgress, Col: layout.Progress, Value: row.Progress},
		} {
			// Absent columns are never written.
			if w.Col > 0 {
				plan.Writes = append(plan.Writes, w)
			}
		}
		if layout.HasLastUpdated() {
			plan.Writes = append(plan.Writes, CellWrite{
				Field: masterdata.FieldLastUpdated,
				Col:   layout.LastUpdated,
				Value: masterdata.FormatTimestamp(&now),
			})
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func checkAligned(edited, snapshot masterdata.Table) error {
	if edited.Len() != snapshot.Len() {
		return errors.NewValidationError("rows", edited.Len(),
			fmt.Sprintf("edited table has %d rows, snapshot has %d", edited.Len(), snapshot.Len()))
	}
	for i := range edited.Rows {
		if got, want := edited.Rows[i].Ordinal, snapshot.Rows[i].Ordinal; got != want {
			return errors.NewValidationError("ordinal", got,
				fmt.Sprintf("row %d has ordinal %d, snapshot has %d", i, got, want))
		}
	}
	return nil
}
