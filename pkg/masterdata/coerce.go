package masterdata

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Wire formats used when writing cells back to the sheet.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// acceptedLayouts are tried in order when coercing free-text date cells.
// Values without a zone are read as wall-clock times.
var acceptedLayouts = []string{
	TimestampLayout,
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseTimestamp coerces a cell into a time. ok is false for empty or
// unparsable cells, which callers record as missing.
//
// The result is the wall clock the cell shows, truncated to seconds and
// labelled UTC, so it formats back to the same TimestampLayout text. An
// explicit offset in the cell is dropped.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), true
		}
	}
	return time.Time{}, false
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// ParseDate coerces a cell into a calendar date (midnight UTC).
func ParseDate(s string) (time.Time, bool) {
	t, ok := ParseTimestamp(s)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// ParseSpending coerces a cell into a number. NaN and infinities count as
// missing so they can never be written back as literal text.
func ParseSpending(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatDate renders a nullable date cell; missing renders as "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatTimestamp renders a nullable timestamp cell; missing renders as "".
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimestampLayout)
}

// FormatSpending renders a nullable amount with the shortest exact decimal
// representation; missing renders as "".
func FormatSpending(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
