package masterdata

import "strings"

// DecodeStats counts the cells that coercion recorded as missing because
// their text could not be parsed. Empty cells are not counted.
type DecodeStats struct {
	Rows    int            `json:"rows"`
	Skipped map[string]int `json:"skipped,omitempty"`
}

// SkippedTotal returns the number of unparsable cells across all fields.
func (s DecodeStats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

func (s *DecodeStats) skip(field string) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	s.Skipped[field]++
}

// Decode turns raw sheet values (header first) into a typed Table. Row
// ordinals equal their position below the header.
func Decode(values [][]string) (Table, DecodeStats) {
	if len(values) == 0 {
		return Table{Layout: DefaultLayout(), Rows: []Row{}}, DecodeStats{}
	}

	layout := ResolveLayout(values[0])
	table := Table{Layout: layout, Rows: make([]Row, 0, len(values)-1)}
	stats := DecodeStats{Rows: len(values) - 1}

	for i, raw := range values[1:] {
		table.Rows = append(table.Rows, decodeRow(i, raw, layout, &stats))
	}
	return table, stats
}

func decodeRow(ordinal int, raw []string, l Layout, stats *DecodeStats) Row {
	cell := func(col int) string {
		if col < 1 || col > len(raw) {
			return ""
		}
		return raw[col-1]
	}

	row := Row{
		Ordinal:   ordinal,
		Raw:       padCells(raw, l.Width()),
		Outcome:   cell(l.Outcome),
		SubOutput: cell(l.SubOutput),
		Agency:    cell(l.Agency),
		Activity:  cell(l.Activity),
		Progress:  cell(l.Progress),
	}

	if s := strings.TrimSpace(cell(l.EndDate)); s != "" {
		if d, ok := ParseDate(s); ok {
			row.EndDate = &d
		} else {
			stats.skip(FieldEndDate)
		}
	}
	if s := strings.TrimSpace(cell(l.Spending)); s != "" {
		if v, ok := ParseSpending(s); ok {
			row.Spending = &v
		} else {
			stats.skip(FieldSpending)
		}
	}
	if l.HasLastUpdated() {
		if s := strings.TrimSpace(cell(l.LastUpdated)); s != "" {
			if t, ok := ParseTimestamp(s); ok {
				row.LastUpdated = &t
			} else {
				stats.skip(FieldLastUpdated)
			}
		}
	}
	return row
}

// Encode renders a table back into sheet values, header first. Cells of a
// decoded row keep their original text unless the field they hold was
// changed, so unmodelled columns and unparsable values survive.
func Encode(t Table) [][]string {
	width := t.Layout.Width()
	header := make([]string, width)
	copy(header, t.Layout.Header)
	out := [][]string{header}

	for _, r := range t.Rows {
		line := padCells(r.Raw, width)
		changed := map[string]bool{}
		if r.Raw != nil {
			orig := decodeRow(r.Ordinal, r.Raw, t.Layout, &DecodeStats{})
			for _, f := range r.Diff(orig) {
				changed[f] = true
			}
		}
		set := func(col int, field, v string) {
			if col < 1 || col > len(line) {
				return
			}
			if r.Raw == nil || changed[field] {
				line[col-1] = v
			}
		}
		set(t.Layout.Outcome, FieldOutcome, r.Outcome)
		set(t.Layout.SubOutput, FieldSubOutput, r.SubOutput)
		set(t.Layout.Agency, FieldAgency, r.Agency)
		set(t.Layout.Activity, FieldActivity, r.Activity)
		set(t.Layout.EndDate, FieldEndDate, FormatDate(r.EndDate))
		set(t.Layout.Spending, FieldSpending, FormatSpending(r.Spending))
		set(t.Layout.Progress, FieldProgress, r.Progress)
		set(t.Layout.LastUpdated, FieldLastUpdated, FormatTimestamp(r.LastUpdated))
		out = append(out, line)
	}
	return out
}

// padCells copies raw and pads it with empty cells up to width. Cells past
// width are kept.
func padCells(raw []string, width int) []string {
	out := make([]string, max(width, len(raw)))
	copy(out, raw)
	return out
}
