package masterdata

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleValues() [][]string {
	return [][]string{
		DefaultLayout().Header,
		{"O1", "S1", "UNDP", "Build wells", "2025-12-31", "1500.5", "On track", "2025-10-01 09:30:00"},
		{"O1", "S2", "WFP", "Deliver food", "not a date", "n/a", "Delayed", ""},
		{"O2", "S3", "UNDP", "Train staff"},
	}
}

func TestDecode(t *testing.T) {
	table, stats := Decode(sampleValues())

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []int{0, 1, 2}, table.Ordinals())
	assert.Equal(t, 3, stats.Rows)

	first := table.Rows[0]
	assert.Equal(t, "UNDP", first.Agency)
	require.NotNil(t, first.EndDate)
	assert.Equal(t, "2025-12-31", FormatDate(first.EndDate))
	require.NotNil(t, first.Spending)
	assert.Equal(t, 1500.5, *first.Spending)
	require.NotNil(t, first.LastUpdated)
	assert.Equal(t, time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC), *first.LastUpdated)

	t.Run("unparsable cells become missing", func(t *testing.T) {
		second := table.Rows[1]
		assert.Nil(t, second.EndDate)
		assert.Nil(t, second.Spending)
		assert.Nil(t, second.LastUpdated)
		assert.Equal(t, "Delayed", second.Progress)
		assert.Equal(t, map[string]int{FieldEndDate: 1, FieldSpending: 1}, stats.Skipped)
		assert.Equal(t, 2, stats.SkippedTotal())
	})

	t.Run("short rows are padded", func(t *testing.T) {
		third := table.Rows[2]
		assert.Equal(t, "Train staff", third.Activity)
		assert.Nil(t, third.EndDate)
		assert.Equal(t, "", third.Progress)
	})
}

func TestDecodeEmpty(t *testing.T) {
	table, stats := Decode(nil)
	assert.True(t, table.Empty())
	assert.NotNil(t, table.Rows)
	assert.Equal(t, 0, stats.SkippedTotal())
	assert.Equal(t, ColProgress, table.Layout.Progress)
}

func TestEncodeRoundTrip(t *testing.T) {
	values := sampleValues()
	table, _ := Decode(values)

	again, _ := Decode(Encode(table))
	if diff := cmp.Diff(table.Rows, again.Rows); diff != "" {
		t.Errorf("round trip changed rows (-want +got):\n%s", diff)
	}
}

func TestParseSpending(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1500", 1500, true},
		{" 12.25 ", 12.25, true},
		{"-3", -3, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1,000", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSpending(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2025-12-31", "2025/12/31", "12/31/2025", "31-Dec-2025", "December 31, 2025", "2025-12-31 18:45:00", "2025-12-31T18:45:00Z"} {
		t.Run(in, func(t *testing.T) {
			d, ok := ParseDate(in)
			require.True(t, ok)
			assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), d)
		})
	}

	_, ok := ParseDate("soon")
	assert.False(t, ok)
}

func TestParseTimestampWallClock(t *testing.T) {
	want := time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{"2025-10-01 09:30:00", "2025-10-01 09:30:00.75", "2025-10-01T09:30:00+02:00", "2025-10-01T09:30:00Z"} {
		t.Run(in, func(t *testing.T) {
			got, ok := ParseTimestamp(in)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestFormatMissingValues(t *testing.T) {
	assert.Equal(t, "", FormatDate(nil))
	assert.Equal(t, "", FormatTimestamp(nil))
	assert.Equal(t, "", FormatSpending(nil))

	v := 2500.0
	assert.Equal(t, "2500", FormatSpending(&v))
	v = 0.1
	assert.Equal(t, "0.1", FormatSpending(&v))
}
