package masterdata

import (
	"encoding/json"
	"time"
)

// Field names used in logs and diffs.
const (
	FieldOutcome     = "outcome"
	FieldSubOutput   = "sub_output"
	FieldAgency      = "agency"
	FieldActivity    = "activity"
	FieldEndDate     = "end_date"
	FieldSpending    = "spending"
	FieldProgress    = "progress"
	FieldLastUpdated = "last_updated"
)

// LockedFields can never be written through the edit protocol.
var LockedFields = []string{FieldOutcome, FieldSubOutput, FieldAgency, FieldActivity}

// EditableFields are the only caller-supplied values written back.
var EditableFields = []string{FieldEndDate, FieldSpending, FieldProgress}

// Row is one unit of work in the Master Data sheet.
type Row struct {
	Ordinal int

	Outcome   string
	SubOutput string
	Agency    string
	Activity  string

	EndDate  *time.Time
	Spending *float64
	Progress string

	LastUpdated *time.Time

	// Raw holds the sheet cells the row was decoded from, padded to the
	// layout width. Columns the layout does not model survive only here.
	Raw []string `json:"-" yaml:"-"`
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := r
	if r.EndDate != nil {
		d := *r.EndDate
		out.EndDate = &d
	}
	if r.Spending != nil {
		v := *r.Spending
		out.Spending = &v
	}
	if r.LastUpdated != nil {
		t := *r.LastUpdated
		out.LastUpdated = &t
	}
	if r.Raw != nil {
		out.Raw = append([]string(nil), r.Raw...)
	}
	return out
}

// Equal compares every field of two rows, locked and derived ones included.
// Raw cells are not compared.
func (r Row) Equal(other Row) bool {
	return len(r.Diff(other)) == 0
}

// Diff lists the names of the fields that differ between two rows. Dates
// and timestamps compare by the text they are written to the sheet as.
func (r Row) Diff(other Row) []string {
	var fields []string
	if r.Outcome != other.Outcome {
		fields = append(fields, FieldOutcome)
	}
	if r.SubOutput != other.SubOutput {
		fields = append(fields, FieldSubOutput)
	}
	if r.Agency != other.Agency {
		fields = append(fields, FieldAgency)
	}
	if r.Activity != other.Activity {
		fields = append(fields, FieldActivity)
	}
	if FormatDate(r.EndDate) != FormatDate(other.EndDate) {
		fields = append(fields, FieldEndDate)
	}
	if !equalAmount(r.Spending, other.Spending) {
		fields = append(fields, FieldSpending)
	}
	if r.Progress != other.Progress {
		fields = append(fields, FieldProgress)
	}
	if FormatTimestamp(r.LastUpdated) != FormatTimestamp(other.LastUpdated) {
		fields = append(fields, FieldLastUpdated)
	}
	return fields
}

func equalAmount(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// rowJSON is the wire shape of a Row. Dates travel as the same text the
// sheet holds so a round trip through a client never introduces changes.
type rowJSON struct {
	Ordinal     int      `json:"ordinal"`
	Outcome     string   `json:"outcome"`
	SubOutput   string   `json:"sub_output"`
	Agency      string   `json:"agency"`
	Activity    string   `json:"activity"`
	EndDate     string   `json:"end_date"`
	Spending    *float64 `json:"spending"`
	Progress    string   `json:"progress"`
	LastUpdated string   `json:"last_updated"`
}

// MarshalJSON implements json.Marshaler.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		Ordinal:     r.Ordinal,
		Outcome:     r.Outcome,
		SubOutput:   r.SubOutput,
		Agency:      r.Agency,
		Activity:    r.Activity,
		EndDate:     FormatDate(r.EndDate),
		Spending:    r.Spending,
		Progress:    r.Progress,
		LastUpdated: FormatTimestamp(r.LastUpdated),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Dates use the same permissive
// coercion as sheet cells.
func (r *Row) UnmarshalJSON(data []byte) error {
	var w rowJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Row{
		Ordinal:   w.Ordinal,
		Outcome:   w.Outcome,
		SubOutput: w.SubOutput,
		Agency:    w.Agency,
		Activity:  w.Activity,
		Spending:  w.Spending,
		Progress:  w.Progress,
	}
	if d, ok := ParseDate(w.EndDate); ok {
		r.EndDate = &d
	}
	if t, ok := ParseTimestamp(w.LastUpdated); ok {
		r.LastUpdated = &t
	}
	return nil
}
