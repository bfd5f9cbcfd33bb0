// Package audit appends one record per reconciled change to the Audit Log
// sheet and reads that sheet back for display. The log is append-only: this
// package never updates or deletes a row.
package audit

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/logging"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// Header is the column order of the Audit Log sheet.
var Header = []string{"Name", "Email", "Agency", "Row Index", "Timestamp", "Action"}

// Record is one audit row.
type Record struct {
	Name      string     `json:"name" yaml:"name"`
	Email     string     `json:"email" yaml:"email"`
	Agency    string     `json:"agency" yaml:"agency"`
	RowIndex  int        `json:"row_index" yaml:"row_index"`
	Timestamp *time.Time `json:"timestamp" yaml:"timestamp"`
	Action    string     `json:"action" yaml:"action"`
}

// NewRecord builds the record for one change made by id.
func NewRecord(id masterdata.Identity, c reconcile.Change) Record {
	ts := c.Timestamp
	return Record{
		Name:      id.Name,
		Email:     id.Email,
		Agency:    id.Agency.String(),
		RowIndex:  c.Ordinal,
		Timestamp: &ts,
		Action:    c.Action,
	}
}

// Values renders the record as a sheet row in Header order.
func (r Record) Values() []string {
	return []string{
		r.Name,
		r.Email,
		r.Agency,
		strconv.Itoa(r.RowIndex),
		masterdata.FormatTimestamp(r.Timestamp),
		r.Action,
	}
}

// Logger appends audit records.
type Logger struct {
	sheet  string
	logger *zerolog.Logger
}

// NewLogger returns a Logger writing to the Audit Log sheet.
func NewLogger() *Logger {
	return &Logger{sheet: masterdata.AuditSheet}
}

// WithLogger sets the logger used for diagnostics.
func (l *Logger) WithLogger(logger *zerolog.Logger) *Logger {
	l.logger = logger
	return l
}

// Append writes one row per change. Every change is attempted; the failures
// are returned joined, each as an *errors.AuditAppendError. The data writes
// the records describe are never rolled back.
func (l *Logger) Append(ctx context.Context, id masterdata.Identity, changes []reconcile.Change, store tabular.Store) error {
	log := l.logger
	if log == nil {
		log = logging.FromContext(ctx)
	}

	var errs []error
	for _, c := range changes {
		rec := NewRecord(id, c)
		if err := store.AppendRow(ctx, l.sheet, rec.Values()); err != nil {
			log.Error().Err(err).
				Int("ordinal", c.Ordinal).
				Str("email", id.Email).
				Msg("Audit record not appended")
			errs = append(errs, &errors.AuditAppendError{Ordinal: c.Ordinal, Err: err})
			continue
		}
		log.Debug().Int("ordinal", c.Ordinal).Str("action", c.Action).Msg("Audit record appended")
	}
	return stderrors.Join(errs...)
}

// Failures unpacks the per-record errors returned by Append.
func Failures(err error) []*errors.AuditAppendError {
	if err == nil {
		return nil
	}
	var out []*errors.AuditAppendError
	var single *errors.AuditAppendError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if stderrors.As(e, &single) {
				out = append(out, single)
			}
		}
		return out
	}
	if stderrors.As(err, &single) {
		out = append(out, single)
	}
	return out
}

// ReadLog returns every record in the Audit Log sheet, oldest first. A
// missing sheet yields an empty log. Other store failures are returned.
func ReadLog(ctx context.Context, store tabular.Store) ([]Record, error) {
	values, err := store.Values(ctx, masterdata.AuditSheet)
	if err != nil {
		if errors.IsNotFound(err) {
			logging.FromContext(ctx).Debug().Msg("Audit Log sheet missing, showing empty history")
			return []Record{}, nil
		}
		return nil, err
	}
	return Decode(values), nil
}

// Decode parses audit sheet values. A first row matching Header is skipped.
func Decode(values [][]string) []Record {
	records := make([]Record, 0, len(values))
	for i, raw := range values {
		if i == 0 && isHeader(raw) {
			continue
		}
		if blank(raw) {
			continue
		}
		cell := func(col int) string {
			if col < len(raw) {
				return strings.TrimSpace(raw[col])
			}
			return ""
		}
		rec := Record{
			Name:   cell(0),
			Email:  cell(1),
			Agency: cell(2),
			Action: cell(5),
		}
		if n, err := strconv.Atoi(cell(3)); err == nil {
			rec.RowIndex = n
		} else {
			rec.RowIndex = -1
		}
		if ts, ok := masterdata.ParseTimestamp(cell(4)); ok {
			rec.Timestamp = &ts
		}
		records = append(records, rec)
	}
	return records
}

// Encode renders records as sheet values, header first.
func Encode(records []Record) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range records {
		out = append(out, r.Values())
	}
	return out
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), Header[0])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
