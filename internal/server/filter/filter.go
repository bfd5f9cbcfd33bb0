// Package filter parses query parameters for the row listing endpoints.
package filter

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// Sort keys accepted by RowFilter.
const (
	SortOrdinal     = "ordinal"
	SortEndDate     = "end_date"
	SortSpending    = "spending"
	SortLastUpdated = "last_updated"
)

// RowFilter narrows and pages a set of rows.
type RowFilter struct {
	Agency           string
	Outcome          string
	ActivityContains string
	Progress         string

	UpdatedAfter *time.Time
	EndsBefore   *time.Time

	Sort   string
	Desc   bool
	Limit  int
	Offset int
}

// ParseRowFilter extracts row filter parameters from an HTTP request.
// Unparsable values are ignored.
func ParseRowFilter(r *http.Request) RowFilter {
	q := r.URL.Query()

	f := RowFilter{
		Agency:           q.Get("agency"),
		Outcome:          q.Get("outcome"),
		ActivityContains: q.Get("activity_contains"),
		Progress:         q.Get("progress"),
		Sort:             q.Get("sort"),
		Desc:             strings.EqualFold(q.Get("order"), "desc"),
		Limit:            parseIntOrDefault(q.Get("limit"), 0),
		Offset:           parseIntOrDefault(q.Get("offset"), 0),
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	if after := q.Get("updated_after"); after != "" {
		if t, ok := masterdata.ParseTimestamp(after); ok {
			f.UpdatedAfter = &t
		}
	}
	if before := q.Get("ends_before"); before != "" {
		if t, ok := masterdata.ParseDate(before); ok {
			f.EndsBefore = &t
		}
	}
	return f
}

// Apply filters, sorts and pages rows. The input is not modified.
func (f RowFilter) Apply(rows []masterdata.Row) []masterdata.Row {
	out := make([]masterdata.Row, 0, len(rows))
	for _, row := range rows {
		if f.matches(row) {
			out = append(out, row)
		}
	}

	f.sort(out)

	if f.Offset >= len(out) {
		return []masterdata.Row{}
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

func (f RowFilter) matches(row masterdata.Row) bool {
	if f.Agency != "" && row.Agency != f.Agency {
		return false
	}
	if f.Outcome != "" && !strings.EqualFold(row.Outcome, f.Outcome) {
		return false
	}
	if f.ActivityContains != "" && !strings.Contains(strings.ToLower(row.Activity), strings.ToLower(f.ActivityContains)) {
		return false
	}
	if f.Progress != "" && !strings.EqualFold(row.Progress, f.Progress) {
		return false
	}
	if f.UpdatedAfter != nil && (row.LastUpdated == nil || !row.LastUpdated.After(*f.UpdatedAfter)) {
		return false
	}
	if f.EndsBefore != nil && (row.EndDate == nil || !row.EndDate.Before(*f.EndsBefore)) {
		return false
	}
	return true
}

// sort orders rows in place. Missing values sort last in either direction.
func (f RowFilter) sort(rows []masterdata.Row) {
	var cmp func(a, b masterdata.Row) (int, bool)
	switch f.Sort {
	case SortEndDate:
		cmp = func(a, b masterdata.Row) (int, bool) { return compareTime(a.EndDate, b.EndDate) }
	case SortLastUpdated:
		cmp = func(a, b masterdata.Row) (int, bool) { return compareTime(a.LastUpdated, b.LastUpdated) }
	case SortSpending:
		cmp = func(a, b masterdata.Row) (int, bool) { return compareFloat(a.Spending, b.Spending) }
	default:
		cmp = func(a, b masterdata.Row) (int, bool) { return a.Ordinal - b.Ordinal, true }
	}

	slices.SortStableFunc(rows, func(a, b masterdata.Row) int {
		c, comparable := cmp(a, b)
		if comparable && f.Desc {
			return -c
		}
		return c
	})
}

// compareTime reports the ordering and whether both values were present.
func compareTime(a, b *time.Time) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, false
	case b == nil:
		return -1, false
	}
	return a.Compare(*b), true
}

func compareFloat(a, b *float64) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, false
	case b == nil:
		return -1, false
	case *a < *b:
		return -1, true
	case *a > *b:
		return 1, true
	}
	return 0, true
}

// parseIntOrDefault parses an integer or returns default.
func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return def
}
