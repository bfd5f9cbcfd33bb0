// Package memory provides an in-memory tabular.Store. It records every call
// and can inject failures, which makes it the store of choice for tests and
// for running the server without any backend.
package memory

import (
	"context"
	"sync"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

// Operations recorded in Call.Op.
const (
	OpValues = "values"
	OpUpdate = "update"
	OpAppend = "append"
)

// Call is one recorded store operation.
type Call struct {
	Op     string
	Sheet  string
	Row    int
	Col    int
	Value  string
	Values []string
}

// FaultFunc decides whether a call should fail. Returning nil lets it through.
type FaultFunc func(Call) error

// Store is a concurrency-safe in-memory spreadsheet.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]string
	calls  []Call
	fault  FaultFunc
}

var _ tabular.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{sheets: make(map[string][][]string)}
}

// SetSheet creates or replaces a sheet with a copy of values.
func (s *Store) SetSheet(name string, values [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[name] = copyGrid(values)
}

// DropSheet removes a sheet.
func (s *Store) DropSheet(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sheets, name)
}

// FailWhen installs a fault injector; nil removes it.
func (s *Store) FailWhen(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Calls returns a copy of every recorded call.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsOf returns the recorded calls with the given operation.
func (s *Store) CallsOf(op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Cell returns the text at a 1-indexed coordinate, or "" when out of range.
func (s *Store) Cell(sheet string, row, col int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid := s.sheets[sheet]
	if row < 1 || row > len(grid) || col < 1 || col > len(grid[row-1]) {
		return ""
	}
	return grid[row-1][col-1]
}

// Values implements tabular.Store.
func (s *Store) Values(_ context.Context, sheet string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.record(Call{Op: OpValues, Sheet: sheet}); err != nil {
		return nil, err
	}
	grid, ok := s.sheets[sheet]
	if !ok {
		return nil, errors.NewSheetNotFoundError(sheet)
	}
	return copyGrid(grid), nil
}

// UpdateCell implements tabular.Store.
func (s *Store) UpdateCell(_ context.Context, sheet string, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.record(Call{Op: OpUpdate, Sheet: sheet, Row: row, Col: col, Value: value}); err != nil {
		return err
	}
	grid, ok := s.sheets[sheet]
	if !ok {
		return errors.NewSheetNotFoundError(sheet)
	}
	if row < 1 || col < 1 {
		return errors.NewValidationError("cell", tabular.A1(sheet, row, col), "coordinates are 1-indexed")
	}
	for len(grid) < row {
		grid = append(grid, nil)
	}
	for len(grid[row-1]) < col {
		grid[row-1] = append(grid[row-1], "")
	}
	grid[row-1][col-1] = value
	s.sheets[sheet] = grid
	return nil
}

// AppendRow implements tabular.Store.
func (s *Store) AppendRow(_ context.Context, sheet string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.record(Call{Op: OpAppend, Sheet: sheet, Values: append([]string(nil), values...)}); err != nil {
		return err
	}
	grid, ok := s.sheets[sheet]
	if !ok {
		return errors.NewSheetNotFoundError(sheet)
	}
	s.sheets[sheet] = append(grid, append([]string(nil), values...))
	return nil
}

// record appends c to the call log and consults the fault injector.
// Callers hold s.mu.
func (s *Store) record(c Call) error {
	s.calls = append(s.calls, c)
	if s.fault != nil {
		return s.fault(c)
	}
	return nil
}

func copyGrid(values [][]string) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = append([]string(nil), row...)
	}
	return out
}
