// Package export renders the master table and the audit log as CSV.
package export

import (
	"encoding/csv"
	"io"

	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// Filename is the download name of the full export.
const Filename = "jwp_full_updated.csv"

// AuditFilename is the download name of the audit log export.
const AuditFilename = "jwp_audit_log.csv"

// ContentType of CSV output.
const ContentType = "text/csv; charset=utf-8"

// WriteTable writes the table as CSV, header first, using the same cell
// text the sheet holds.
func WriteTable(w io.Writer, t masterdata.Table) error {
	return writeAll(w, masterdata.Encode(t))
}

// WriteAudit writes audit records as CSV, header first.
func WriteAudit(w io.Writer, records []audit.Record) error {
	return writeAll(w, audit.Encode(records))
}

func writeAll(w io.Writer, values [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(values); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	return nil
}
