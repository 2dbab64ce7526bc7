package directory

import (
	"fmt"
	"strings"
)

const (
	// MinAge is the lowest age a record may carry
	MinAge = 1
	// MaxAge is the highest age a record may carry
	MaxAge = 200
)

// Validator is a predicate over a candidate record, checked before insertion.
// Implementations return an error wrapping ErrValidation when the candidate
// must be rejected.
type Validator interface {
	Validate(u User) error
}

// RequiredNames rejects records with a blank first or last name
type RequiredNames struct{}

// Validate checks that both name fields are non-blank
func (RequiredNames) Validate(u User) error {
	if strings.TrimSpace(u.FirstName) == "" {
		return fmt.Errorf("%w: first name is required", ErrValidation)
	}
	if strings.TrimSpace(u.LastName) == "" {
		return fmt.Errorf("%w: last name is required", ErrValidation)
	}
	return nil
}

// AgeRange rejects records whose age falls outside [Min, Max]
type AgeRange struct {
	Min int
	Max int
}

// DefaultAgeRange returns the standard [MinAge, MaxAge] check
func DefaultAgeRange() AgeRange {
	return AgeRange{Min: MinAge, Max: MaxAge}
}

// Validate checks that the age is within the configured range
func (r AgeRange) Validate(u User) error {
	if u.Age < r.Min || u.Age > r.Max {
		return fmt.Errorf("%w: age %d outside [%d, %d]", ErrValidation, u.Age, r.Min, r.Max)
	}
	return nil
}

// MultiValidator composes several checks, applied in order
// The first failure wins; later checks are not run
type MultiValidator []Validator

// NewDefaultValidator returns the validator stack used by the master:
// required names plus the standard age range.
func NewDefaultValidator() MultiValidator {
	return MultiValidator{RequiredNames{}, DefaultAgeRange()}
}

// Validate runs each check in order, returning the first failure
func (m MultiValidator) Validate(u User) error {
	for _, v := range m {
		if err := v.Validate(u); err != nil {
			return err
		}
	}
	return nil
}
