// Package sqlite implements tabular.Store on a local SQLite database. Each
// sheet is a set of (row, col, value) cells, so ragged rows and sparse
// updates behave the same way they do on a hosted spreadsheet.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "jwpedit.db"

const schema = `
CREATE TABLE IF NOT EXISTS sheets (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS cells (
	sheet TEXT NOT NULL REFERENCES sheets(name) ON DELETE CASCADE,
	row   INTEGER NOT NULL,
	col   INTEGER NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (sheet, row, col)
);`

// Store is a SQLite-backed spreadsheet.
type Store struct {
	db   *sql.DB
	path string
}

var _ tabular.Store = (*Store)(nil)

// Open opens (or creates) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStoreError("open", "", err)
	}
	// A single connection serialises writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.NewStoreError("open", "", fmt.Errorf("create schema: %w", err))
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateSheet registers an empty sheet. Creating an existing sheet is a no-op.
func (s *Store) CreateSheet(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO sheets(name) VALUES (?)`, name); err != nil {
		return errors.NewStoreError("create", name, err)
	}
	return nil
}

// ReplaceSheet creates the sheet if needed and replaces its content with values.
func (s *Store) ReplaceSheet(ctx context.Context, name string, values [][]string) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError("replace", name, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sheets(name) VALUES (?)`, name); err != nil {
		return errors.NewStoreError("replace", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE sheet = ?`, name); err != nil {
		return errors.NewStoreError("replace", name, err)
	}
	for i, row := range values {
		if err := insertRow(ctx, tx, name, i+1, row); err != nil {
			return errors.NewStoreError("replace", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("replace", name, err)
	}
	return nil
}

// ImportCSV replaces the sheet with the records read from r and returns the
// number of records imported, header included.
func (s *Store) ImportCSV(ctx context.Context, name string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, errors.WrapParse("csv", "", err)
	}
	if err := s.ReplaceSheet(ctx, name, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Values implements tabular.Store.
func (s *Store) Values(ctx context.Context, sheet string) ([][]string, error) {
	if err := s.requireSheet(ctx, sheet); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT row, col, value FROM cells WHERE sheet = ? ORDER BY row, col`, sheet)
	if err != nil {
		return nil, errors.NewStoreError("read", sheet, err)
	}
	defer func() { _ = rows.Close() }()

	var grid [][]string
	for rows.Next() {
		var (
			r, c  int
			value string
		)
		if err := rows.Scan(&r, &c, &value); err != nil {
			return nil, errors.NewStoreError("read", sheet, err)
		}
		for len(grid) < r {
			grid = append(grid, []string{})
		}
		for len(grid[r-1]) < c {
			grid[r-1] = append(grid[r-1], "")
		}
		grid[r-1][c-1] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("read", sheet, err)
	}
	return grid, nil
}

// UpdateCell implements tabular.Store.
func (s *Store) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	if row < 1 || col < 1 {
		return errors.NewValidationError("cell", tabular.A1(sheet, row, col), "coordinates are 1-indexed")
	}
	if err := s.requireSheet(ctx, sheet); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cells(sheet, row, col, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT(sheet, row, col) DO UPDATE SET value = excluded.value`,
		sheet, row, col, value)
	if err != nil {
		return errors.NewStoreError("update", sheet, err)
	}
	return nil
}

// AppendRow implements tabular.Store.
func (s *Store) AppendRow(ctx context.Context, sheet string, values []string) (retErr error) {
	if err := s.requireSheet(ctx, sheet); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError("append", sheet, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(row) FROM cells WHERE sheet = ? AND value <> ''`, sheet).Scan(&last); err != nil {
		return errors.NewStoreError("append", sheet, err)
	}
	row := int(last.Int64) + 1
	if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE sheet = ? AND row = ?`, sheet, row); err != nil {
		return errors.NewStoreError("append", sheet, err)
	}
	if err := insertRow(ctx, tx, sheet, row, values); err != nil {
		return errors.NewStoreError("append", sheet, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("append", sheet, err)
	}
	return nil
}

// Sheets lists the sheet names in the database.
func (s *Store) Sheets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY name`)
	if err != nil {
		return nil, errors.NewStoreError("list", "", err)
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewStoreError("list", "", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) requireSheet(ctx context.Context, sheet string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sheets WHERE name = ?`, sheet).Scan(&n); err != nil {
		return errors.NewStoreError("read", sheet, err)
	}
	if n == 0 {
		return errors.NewSheetNotFoundError(sheet)
	}
	return nil
}

func insertRow(ctx context.Context, tx *sql.Tx, sheet string, row int, values []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cells(sheet, row, col, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, sheet, row, i+1, v); err != nil {
			return fmt.Errorf("insert %s: %w", tabular.A1(sheet, row, i+1), err)
		}
	}
	return nil
}
