package apply

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// EditFile is the document read by the apply command. JSON documents are
// accepted as well since they are valid YAML.
//
//	rows:
//	  - ordinal: 3
//	    progress: Completed
//	    spending: 1500.5
//	    end_date: "2025-12-31"
type EditFile struct {
	Rows []RowEdit `yaml:"rows" json:"rows"`
}

// RowEdit changes the editable fields of one row. A missing field is left
// as it is; an empty string clears the cell.
type RowEdit struct {
	Ordinal  int     `yaml:"ordinal" json:"ordinal"`
	EndDate  *string `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	Spending any     `yaml:"spending,omitempty" json:"spending,omitempty"`
	Progress *string `yaml:"progress,omitempty" json:"progress,omitempty"`
}

// ParseEditFile decodes an edit document.
func ParseEditFile(r io.Reader, name string) (EditFile, error) {
	var f EditFile
	data, err := io.ReadAll(r)
	if err != nil {
		return f, errors.WrapIO("read", name, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, errors.WrapParse("yaml", name, err)
	}
	if len(f.Rows) == 0 {
		return f, errors.NewValidationError("rows", nil, "edit file lists no rows")
	}
	return f, nil
}

// Apply copies the edits onto a clone of snapshot. Every ordinal must be
// present in snapshot, so edits never reach rows the caller cannot see.
func (f EditFile) Apply(snapshot masterdata.Table) (masterdata.Table, error) {
	edited := snapshot.Clone()
	index := make(map[int]int, len(edited.Rows))
	for i, r := range edited.Rows {
		index[r.Ordinal] = i
	}
	for _, e := range f.Rows {
		i, ok := index[e.Ordinal]
		if !ok {
			return masterdata.Table{}, errors.NewValidationError("ordinal", e.Ordinal, "row is not visible to this agency")
		}
		if err := e.applyTo(&edited.Rows[i]); err != nil {
			return masterdata.Table{}, err
		}
	}
	return edited, nil
}

func (e RowEdit) applyTo(row *masterdata.Row) error {
	if e.EndDate != nil {
		v := strings.TrimSpace(*e.EndDate)
		if v == "" {
			row.EndDate = nil
		} else {
			d, ok := masterdata.ParseDate(v)
			if !ok {
				return errors.NewValidationError(masterdata.FieldEndDate, v, fmt.Sprintf("row %d: not a date", e.Ordinal))
			}
			row.EndDate = &d
		}
	}

	if e.Spending != nil {
		v := strings.TrimSpace(fmt.Sprint(e.Spending))
		if v == "" {
			row.Spending = nil
		} else {
			amount, ok := masterdata.ParseSpending(v)
			if !ok {
				return errors.NewValidationError(masterdata.FieldSpending, v, fmt.Sprintf("row %d: not a number", e.Ordinal))
			}
			row.Spending = &amount
		}
	}

	if e.Progress != nil {
		row.Progress = *e.Progress
	}
	return nil
}
