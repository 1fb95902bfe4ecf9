package docsystem

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"archivist/internal/domain"
)

// ToValidationError converts ozzo-validation output into a domain ValidationError.
// The first failing field (alphabetically) is reported.
func ToValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	first := fields[0]
	return domain.NewValidationError(first, fieldErrs[first].Error())
}
