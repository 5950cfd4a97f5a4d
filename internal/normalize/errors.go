package normalize

import (
	"errors"
	"fmt"
)

// Kind is a machine readable validation failure code.
type Kind string

const (
	KindInvalidDate       Kind = "invalid_date"
	KindPastDate          Kind = "date_in_past"
	KindMissingIdentifier Kind = "missing_identifier"
	KindInvalidNumber     Kind = "invalid_numeric_field"
	KindInvalidClear      Kind = "invalid_clear"
)

const (
	msgInvalidDate       = "Please provide a valid date."
	msgPastDate          = "Due date cannot be in the past."
	msgMissingIdentifier = "Missing app_uuid; cannot update safely."
)

// ValidationError is returned for input that cannot become a patch.
type ValidationError struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsKind reports whether err is a ValidationError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == kind
}

func invalidNumber(field string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidNumber,
		Field:   field,
		Message: fmt.Sprintf("%s must be a whole number", field),
	}
}

func invalidClear(field, reason string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidClear,
		Field:   field,
		Message: reason,
	}
}
