package filter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(v float64) *float64 { return &v }

func sampleRows() []masterdata.Row {
	return []masterdata.Row{
		{Ordinal: 1, Outcome: "Outcome 1", Agency: "UNDP", Activity: "Water points", EndDate: date(2025, 6, 30), Spending: amount(1200), Progress: "On track"},
		{Ordinal: 2, Outcome: "Outcome 2", Agency: "WFP", Activity: "School meals", EndDate: date(2025, 3, 31), Progress: "Delayed", LastUpdated: date(2025, 2, 1)},
		{Ordinal: 3, Outcome: "Outcome 1", Agency: "UNDP", Activity: "Water trucking", Spending: amount(300), Progress: "Completed", LastUpdated: date(2025, 1, 15)},
	}
}

func ordinals(rows []masterdata.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Ordinal
	}
	return out
}

func TestParseRowFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, f RowFilter)
	}{
		{
			name:  "empty query",
			query: "",
			check: func(t *testing.T, f RowFilter) {
				assert.Equal(t, RowFilter{}, f)
			},
		},
		{
			name:  "basic filters",
			query: "agency=UNDP&outcome=Outcome+1&activity_contains=water&progress=Delayed",
			check: func(t *testing.T, f RowFilter) {
				assert.Equal(t, "UNDP", f.Agency)
				assert.Equal(t, "Outcome 1", f.Outcome)
				assert.Equal(t, "water", f.ActivityContains)
				assert.Equal(t, "Delayed", f.Progress)
			},
		},
		{
			name:  "paging and order",
			query: "limit=10&offset=5&sort=spending&order=DESC",
			check: func(t *testing.T, f RowFilter) {
				assert.Equal(t, 10, f.Limit)
				assert.Equal(t, 5, f.Offset)
				assert.Equal(t, SortSpending, f.Sort)
				assert.True(t, f.Desc)
			},
		},
		{
			name:  "invalid numbers fall back",
			query: "limit=abc&offset=-3",
			check: func(t *testing.T, f RowFilter) {
				assert.Zero(t, f.Limit)
				assert.Zero(t, f.Offset)
			},
		},
		{
			name:  "dates",
			query: "updated_after=2025-01-20&ends_before=2025-05-01",
			check: func(t *testing.T, f RowFilter) {
				require.NotNil(t, f.UpdatedAfter)
				require.NotNil(t, f.EndsBefore)
				assert.Equal(t, *date(2025, 1, 20), *f.UpdatedAfter)
				assert.Equal(t, *date(2025, 5, 1), *f.EndsBefore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/admin/rows?"+tt.query, nil)
			tt.check(t, ParseRowFilter(req))
		})
	}
}

func TestRowFilterApply(t *testing.T) {
	tests := []struct {
		name   string
		filter RowFilter
		want   []int
	}{
		{"no filter keeps order", RowFilter{}, []int{1, 2, 3}},
		{"agency exact", RowFilter{Agency: "UNDP"}, []int{1, 3}},
		{"agency is case sensitive", RowFilter{Agency: "undp"}, []int{}},
		{"activity contains", RowFilter{ActivityContains: "WATER"}, []int{1, 3}},
		{"progress", RowFilter{Progress: "delayed"}, []int{2}},
		{"updated after", RowFilter{UpdatedAfter: date(2025, 1, 20)}, []int{2}},
		{"ends before", RowFilter{EndsBefore: date(2025, 5, 1)}, []int{2}},
		{"sort spending asc, missing last", RowFilter{Sort: SortSpending}, []int{3, 1, 2}},
		{"sort spending desc, missing last", RowFilter{Sort: SortSpending, Desc: true}, []int{1, 3, 2}},
		{"sort end date", RowFilter{Sort: SortEndDate}, []int{2, 1, 3}},
		{"ordinal desc", RowFilter{Desc: true}, []int{3, 2, 1}},
		{"limit", RowFilter{Limit: 2}, []int{1, 2}},
		{"offset", RowFilter{Offset: 2}, []int{3}},
		{"offset past end", RowFilter{Offset: 9}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := sampleRows()
			got := tt.filter.Apply(rows)
			if diff := cmp.Diff(tt.want, ordinals(got)); diff != "" {
				t.Errorf("ordinals mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []int{1, 2, 3}, ordinals(rows), "input untouched")
		})
	}
}
