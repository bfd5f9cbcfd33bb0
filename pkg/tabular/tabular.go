// Package tabular defines the boundary to the remote tabular store: a named
// spreadsheet holding sheets addressed by 1-indexed row and column.
//
// Implementations report a missing sheet with errors.SheetNotFoundError and
// any other access failure with an error matching errors.ErrStoreUnavailable.
package tabular

import (
	"context"
	"fmt"
	"strings"
)

// Store is an already-authorised handle on one spreadsheet.
type Store interface {
	// Values returns every row of the named sheet, header first. Rows may
	// be ragged; trailing empty cells are often omitted by the backend.
	Values(ctx context.Context, sheet string) ([][]string, error)

	// UpdateCell writes a single cell. row and col are 1-indexed.
	UpdateCell(ctx context.Context, sheet string, row, col int, value string) error

	// AppendRow adds a row after the last non-empty row of the sheet.
	AppendRow(ctx context.Context, sheet string, values []string) error
}

// Closer is implemented by stores that hold resources.
type Closer interface {
	Close() error
}

// Close closes s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// ColumnLetters converts a 1-indexed column number to A1 letters (1 → A, 27 → AA).
func ColumnLetters(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append(b, byte('A'+col%26))
		col /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// A1 returns a quoted A1 reference such as 'Master Data'!G5.
func A1(sheet string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", QuoteSheet(sheet), ColumnLetters(col), row)
}

// QuoteSheet quotes a sheet name for use in A1 notation.
func QuoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
