package masterdata

import (
	"slices"
	"strings"
)

// Sheet names inside the shared spreadsheet.
const (
	MasterSheet = "Master Data"
	AuditSheet  = "Audit Log"
)

// Canonical 1-indexed column positions of the Master Data sheet.
const (
	ColOutcome     = 1
	ColSubOutput   = 2
	ColAgency      = 3
	ColActivity    = 4
	ColEndDate     = 5
	ColSpending    = 6
	ColProgress    = 7
	ColLastUpdated = 8
)

// Header names as they appear in the sheet. Spending and Progress headers
// carry a reporting period suffix, so they are matched by prefix.
const (
	HeaderOutcome        = "Outcome"
	HeaderSubOutput      = "Sub-Output"
	HeaderAgency         = "Agency"
	HeaderActivity       = "Activity"
	HeaderEndDate        = "End date"
	HeaderSpendingPrefix = "Spending"
	HeaderProgressPrefix = "Progress"
	HeaderLastUpdated    = "Last Updated"
)

// headerRowCount is the number of header rows above the first data row.
const headerRowCount = 1

// OrdinalToSheetRow maps a zero-based row ordinal to its 1-indexed sheet row.
func OrdinalToSheetRow(ordinal int) int {
	return ordinal + headerRowCount + 1
}

// Layout records which 1-indexed sheet column holds each field. A zero
// position means the column is absent.
type Layout struct {
	Header      []string
	Outcome     int
	SubOutput   int
	Agency      int
	Activity    int
	EndDate     int
	Spending    int
	Progress    int
	LastUpdated int
}

// DefaultLayout returns the canonical eight-column layout.
func DefaultLayout() Layout {
	return Layout{
		Header: []string{
			HeaderOutcome, HeaderSubOutput, HeaderAgency, HeaderActivity,
			HeaderEndDate, "Spending as of Oct 2025 (USD)", "Progress as of Oct 2025", HeaderLastUpdated,
		},
		Outcome:     ColOutcome,
		SubOutput:   ColSubOutput,
		Agency:      ColAgency,
		Activity:    ColActivity,
		EndDate:     ColEndDate,
		Spending:    ColSpending,
		Progress:    ColProgress,
		LastUpdated: ColLastUpdated,
	}
}

// ResolveLayout locates each field in a header row. Fields whose header is
// missing fall back to their canonical position unless another field's
// header already sits there, in which case the field stays absent. Last
// Updated is only present when the sheet has that header.
func ResolveLayout(header []string) Layout {
	l := Layout{Header: append([]string(nil), header...)}
	for i, h := range header {
		pos := i + 1
		name := strings.TrimSpace(h)
		switch {
		case name == HeaderOutcome:
			setIfZero(&l.Outcome, pos)
		case name == HeaderSubOutput:
			setIfZero(&l.SubOutput, pos)
		case name == HeaderAgency:
			setIfZero(&l.Agency, pos)
		case name == HeaderActivity:
			setIfZero(&l.Activity, pos)
		case strings.EqualFold(name, HeaderEndDate):
			setIfZero(&l.EndDate, pos)
		case strings.HasPrefix(name, HeaderSpendingPrefix):
			setIfZero(&l.Spending, pos)
		case strings.HasPrefix(name, HeaderProgressPrefix):
			setIfZero(&l.Progress, pos)
		case name == HeaderLastUpdated:
			setIfZero(&l.LastUpdated, pos)
		}
	}

	taken := make(map[int]bool)
	for _, pos := range l.positions() {
		if pos > 0 {
			taken[pos] = true
		}
	}
	fallback := func(dst *int, pos int) {
		if *dst == 0 && !taken[pos] {
			*dst = pos
			taken[pos] = true
		}
	}
	fallback(&l.Outcome, ColOutcome)
	fallback(&l.SubOutput, ColSubOutput)
	fallback(&l.Agency, ColAgency)
	fallback(&l.Activity, ColActivity)
	fallback(&l.EndDate, ColEndDate)
	fallback(&l.Spending, ColSpending)
	fallback(&l.Progress, ColProgress)
	return l
}

func (l Layout) positions() []int {
	return []int{l.Outcome, l.SubOutput, l.Agency, l.Activity,
		l.EndDate, l.Spending, l.Progress, l.LastUpdated}
}

// HasLastUpdated reports whether the sheet has a Last Updated column.
func (l Layout) HasLastUpdated() bool {
	return l.LastUpdated > 0
}

// Width is the number of columns a data row must have to cover every field.
func (l Layout) Width() int {
	return max(len(l.Header), slices.Max(l.positions()))
}

// ColumnName returns the header text for a 1-indexed column, if known.
func (l Layout) ColumnName(col int) string {
	if col >= 1 && col <= len(l.Header) {
		return l.Header[col-1]
	}
	return ""
}

func setIfZero(dst *int, pos int) {
	if *dst == 0 {
		*dst = pos
	}
}
