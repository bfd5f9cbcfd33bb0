// Package access restricts the master table to what a caller may see.
package access

import (
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// Filter returns the rows whose Agency equals agency exactly. Ordinals are
// preserved and rows are deep copies, so edits to the result never reach
// the input table. No match yields an empty table.
func Filter(t masterdata.Table, agency masterdata.Agency) masterdata.Table {
	out := masterdata.Table{
		Layout: t.Layout,
		Rows:   make([]masterdata.Row, 0),
	}
	for _, row := range t.Rows {
		if row.Agency == string(agency) {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}

// Scope is the breadth of rows a policy exposes.
type Scope int

const (
	// ScopeAgency limits rows to one agency.
	ScopeAgency Scope = iota
	// ScopeAll exposes the full table.
	ScopeAll
)

// String returns the scope name.
func (s Scope) String() string {
	if s == ScopeAll {
		return "all"
	}
	return "agency"
}

// Policy decides which rows a caller sees.
type Policy struct {
	Scope  Scope
	Agency masterdata.Agency
}

// ForIdentity returns the agency-scoped policy for a stakeholder.
func ForIdentity(id masterdata.Identity) Policy {
	return Policy{Scope: ScopeAgency, Agency: id.Agency}
}

// Admin returns a policy that sees every row.
func Admin() Policy {
	return Policy{Scope: ScopeAll}
}

// Apply returns the rows visible under the policy.
func (p Policy) Apply(t masterdata.Table) masterdata.Table {
	if p.Scope == ScopeAll {
		return t.Clone()
	}
	return Filter(t, p.Agency)
}

// Allows reports whether the policy exposes the row.
func (p Policy) Allows(row masterdata.Row) bool {
	return p.Scope == ScopeAll || row.Agency == string(p.Agency)
}
