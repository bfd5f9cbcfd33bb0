// Package masterdata models the shared "Master Data" sheet: its rows, the
// column layout found in the sheet header, the caller identity used to
// scope and attribute edits, and the permissive coercion applied to cells.
//
// A Row is addressed by its ordinal, the zero-based position of the row in
// the sheet with the header excluded. OrdinalToSheetRow is the only place
// that maps an ordinal to a physical 1-indexed sheet row.
//
// Coercion never fails: a cell that cannot be parsed into its typed form is
// recorded as missing and counted in DecodeStats.
package masterdata
