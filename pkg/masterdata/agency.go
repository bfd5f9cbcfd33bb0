package masterdata

import (
	"slices"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Agency is an organisation code from the fixed set of stakeholders.
type Agency string

// Agencies lists every organisation allowed to sign in, in display order.
var Agencies = []Agency{
	"FAO", "ILO", "IOM", "UN Habitat", "UN Women", "UNDP", "UNEP",
	"UNESCO", "UNFPA", "UNHCR", "UNICEF", "UNOPS", "WFP", "WHO",
}

// ParseAgency validates s against the known agency codes. Matching is exact.
func ParseAgency(s string) (Agency, error) {
	a := Agency(s)
	if !slices.Contains(Agencies, a) {
		return "", errors.NewValidationError("agency", s, "unknown agency")
	}
	return a, nil
}

// String returns the agency code.
func (a Agency) String() string {
	return string(a)
}
