package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *Error wraps exactly one of these so callers can use errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrConstraintViolation  = errors.New("constraint violation")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrUnavailable          = errors.New("storage unavailable")
	ErrValidation           = errors.New("validation failed")
)

// Constraint names carried on ConstraintViolation errors.
const (
	ConstraintUnique = "unique"
	ConstraintRange  = "range"
	ConstraintCheck  = "check"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the structured error returned by repositories and services.
type Error struct {
	Kind       error
	Entity     string
	Key        string
	Field      string
	Constraint string
	Message    string
	Fields     []FieldError
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}

	var b strings.Builder
	if e.Entity != "" {
		b.WriteString(e.Entity)
		if e.Key != "" {
			fmt.Fprintf(&b, " %q", e.Key)
		}
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("unknown error")
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NotFound reports a missing entity key.
func NotFound(entity, key string) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Entity:  entity,
		Key:     key,
		Message: fmt.Sprintf("%s %q not found", entity, key),
	}
}

// ConstraintViolation reports a rejected write.
func ConstraintViolation(entity, field, constraint, message string) *Error {
	return &Error{
		Kind:       ErrConstraintViolation,
		Entity:     entity,
		Field:      field,
		Constraint: constraint,
		Message:    message,
	}
}

// ReferentialIntegrity reports a write or delete blocked by a missing or dependent row.
func ReferentialIntegrity(entity, key, field, message string) *Error {
	return &Error{
		Kind:    ErrReferentialIntegrity,
		Entity:  entity,
		Key:     key,
		Field:   field,
		Message: message,
	}
}

// Unavailable wraps a storage outage. Callers may retry with backoff.
func Unavailable(cause error) *Error {
	return &Error{
		Kind:    ErrUnavailable,
		Message: "storage temporarily unavailable",
		Err:     cause,
	}
}

// Validation reports malformed input.
func Validation(message string, fields ...FieldError) *Error {
	if message == "" {
		message = ErrValidation.Error()
	}
	return &Error{
		Kind:    ErrValidation,
		Message: message,
		Fields:  fields,
	}
}

// As extracts the structured error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether the caller may retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
