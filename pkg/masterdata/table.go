package masterdata

// Table is an ordered set of rows together with the sheet layout they were
// decoded with. Rows keep the ordinals they had in the full sheet, so a
// filtered table can still address its rows in the store.
type Table struct {
	Layout Layout `json:"-"`
	Rows   []Row  `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Clone returns a deep copy that shares no memory with t.
func (t Table) Clone() Table {
	out := Table{Layout: t.Layout}
	out.Layout.Header = append([]string(nil), t.Layout.Header...)
	if t.Rows != nil {
		out.Rows = make([]Row, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}

// Ordinals returns the ordinal of each row, in order.
func (t Table) Ordinals() []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Ordinal
	}
	return out
}

// Row returns the row with the given ordinal.
func (t Table) Row(ordinal int) (Row, bool) {
	for _, r := range t.Rows {
		if r.Ordinal == ordinal {
			return r, true
		}
	}
	return Row{}, false
}
