package model

import (
	"errors"
	"fmt"
)

// Not-found sentinels. Store operations return these (possibly wrapped)
// when a referenced entity does not exist; no write occurs.
var (
	ErrKeyNotFound        = errors.New("key not found")
	ErrRadioNotFound      = errors.New("radio not found")
	ErrComponentNotFound  = errors.New("component not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// State-machine violations for radios.
var (
	ErrRadioAssigned  = errors.New("radio is already assigned")
	ErrRadioAvailable = errors.New("radio is not assigned")
)

// ValidationError reports a missing or malformed input field. No write
// occurs when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientQuantityError reports a custody transfer from a holder that
// does not hold the requested quantity. The stored holder list is left
// unchanged.
type InsufficientQuantityError struct {
	Holder string
	Have   int
	Want   int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("not enough keys in %s: have %d, need %d", e.Holder, e.Have, e.Want)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrRadioNotFound) ||
		errors.Is(err, ErrComponentNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}
