package masterdata

import (
	"strings"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Identity is the caller as asserted at sign-in. It is trusted without
// verification and used both to scope rows and to attribute audit records.
type Identity struct {
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Agency Agency `json:"agency" yaml:"agency"`
}

// NewIdentity trims and validates the three identity fields.
func NewIdentity(name, email, agency string) (Identity, error) {
	id := Identity{
		Name:   strings.TrimSpace(name),
		Email:  strings.TrimSpace(email),
		Agency: Agency(strings.TrimSpace(agency)),
	}
	return id, id.Validate()
}

// Validate checks that every field is present and the agency is known.
func (id Identity) Validate() error {
	if id.Name == "" {
		return errors.NewValidationError("name", id.Name, "name is required")
	}
	if id.Email == "" {
		return errors.NewValidationError("email", id.Email, "email is required")
	}
	if !strings.Contains(id.Email, "@") {
		return errors.NewValidationError("email", id.Email, "not an email address")
	}
	_, err := ParseAgency(string(id.Agency))
	return err
}
