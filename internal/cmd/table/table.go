// Package table converts editor data into rows and columns for CLI output.
package table

import (
	"strconv"

	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// RowsToTableData converts master rows to table format. Wide output adds
// the Outcome and Sub-Output columns.
func RowsToTableData(rows []masterdata.Row, wide bool) Data {
	headers := []string{"#", "Agency", "Activity", "End Date", "Spending", "Progress", "Last Updated"}
	align := []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft}
	if wide {
		headers = append([]string{"#", "Outcome", "Sub-Output"}, headers[1:]...)
		align = append([]Align{AlignRight, AlignLeft, AlignLeft}, align[1:]...)
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := []string{
			strconv.Itoa(r.Ordinal),
			r.Agency,
			r.Activity,
			masterdata.FormatDate(r.EndDate),
			masterdata.FormatSpending(r.Spending),
			r.Progress,
			masterdata.FormatTimestamp(r.LastUpdated),
		}
		if wide {
			cells = append([]string{cells[0], r.Outcome, r.SubOutput}, cells[1:]...)
		}
		out = append(out, cells)
	}
	return Data{Headers: headers, Rows: out, ColumnAlignment: align}
}

// AuditToTableData converts audit records to table format.
func AuditToTableData(records []audit.Record) Data {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Values())
	}
	return Data{
		Headers:         audit.Header,
		Rows:            out,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
}

// PlansToTableData lists planned cell writes, one line per cell.
func PlansToTableData(plans []reconcile.RowPlan) Data {
	var out [][]string
	for _, p := range plans {
		for _, w := range p.Writes {
			out = append(out, []string{
				strconv.Itoa(p.Ordinal),
				strconv.Itoa(p.SheetRow),
				strconv.Itoa(w.Col),
				w.Field,
				w.Value,
			})
		}
	}
	return Data{
		Headers:         []string{"#", "Sheet Row", "Column", "Field", "Value"},
		Rows:            out,
		ColumnAlignment: []Align{AlignRight, AlignRight, AlignRight, AlignLeft, AlignLeft},
	}
}

// ChangesToTableData converts saved changes to table format.
func ChangesToTableData(changes []reconcile.Change) Data {
	out := make([][]string, 0, len(changes))
	for _, c := range changes {
		ts := c.Timestamp
		out = append(out, []string{strconv.Itoa(c.Ordinal), masterdata.FormatTimestamp(&ts), c.Action})
	}
	return Data{
		Headers:         []string{"#", "Timestamp", "Action"},
		Rows:            out,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft},
	}
}
