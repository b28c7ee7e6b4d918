package analyses

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation a required field is empty or an enum value is unknown.
	// Never reaches the repository.
	ErrValidation = errors.New("validation failure")

	// ErrIOFailure any repository call failed.
	ErrIOFailure = errors.New("io failure")

	// ErrNotFound the id is not in the record store.
	ErrNotFound = errors.New("analysis not found")

	// ErrInvalidTransition the edit session is not in a state that accepts the intent.
	ErrInvalidTransition = errors.New("invalid edit session transition")
)

// ValidationError lists the offending fields
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failure: invalid %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnknownFieldError a draft update named a field the entity does not have
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("validation failure: unknown field %q", e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrValidation }

// IOError wraps a failed repository call.
type IOError struct {
	Op  string
	ID  ID
	Err error
}

func (e *IOError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIOFailure }
