package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes errors surfaced by the query path.
type ErrorCode string

const (
	// ErrCodeFieldNotFound indicates a filter named a field the collection lacks.
	ErrCodeFieldNotFound ErrorCode = "FIELD_NOT_FOUND"

	// ErrCodeFieldTypeMismatch indicates the field's data type is not
	// accepted by the filter kind.
	ErrCodeFieldTypeMismatch ErrorCode = "FIELD_TYPE_MISMATCH"

	// ErrCodeInvalidOperand indicates an operand failed to parse.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeMissingRequiredOperand indicates a comparison needs an operand
	// that was not supplied.
	ErrCodeMissingRequiredOperand ErrorCode = "MISSING_REQUIRED_OPERAND"

	// ErrCodeUnsupportedComparison indicates a comparison that is declared
	// but not executable.
	ErrCodeUnsupportedComparison ErrorCode = "UNSUPPORTED_COMPARISON"

	// ErrCodeEntryNotFound indicates a lookup by name matched nothing.
	ErrCodeEntryNotFound ErrorCode = "ENTRY_NOT_FOUND"

	// ErrCodeCollectionNotFound indicates a collection lookup matched nothing.
	ErrCodeCollectionNotFound ErrorCode = "COLLECTION_NOT_FOUND"

	// ErrCodeStore wraps a failure from the storage layer.
	ErrCodeStore ErrorCode = "STORE_ERROR"
)

// Error is the structured error returned by catalog, filter, materialize
// and query operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description naming the offending
	// field or comparison.
	Message string

	// Field is the field name involved, if any.
	Field string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause (store errors only).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err wraps an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// NewFieldNotFound creates an error for an unknown field name.
func NewFieldNotFound(name string) *Error {
	return &Error{
		Code:    ErrCodeFieldNotFound,
		Message: fmt.Sprintf("field %q does not exist in collection", name),
		Field:   name,
	}
}

// NewFieldTypeMismatch creates an error for a field whose type the filter
// kind does not accept.
func NewFieldTypeMismatch(name string, actual DataType, expected []DataType) *Error {
	names := make([]string, len(expected))
	for i, t := range expected {
		names[i] = string(t)
	}
	return &Error{
		Code:    ErrCodeFieldTypeMismatch,
		Message: fmt.Sprintf("field %q has type %s, expected one of [%s]", name, actual, strings.Join(names, ", ")),
		Field:   name,
		Details: map[string]string{
			"actual":   string(actual),
			"expected": strings.Join(names, ","),
		},
	}
}

// NewInvalidOperand creates an error for an operand that failed to parse.
func NewInvalidOperand(field, operand, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalidOperand,
		Message: fmt.Sprintf("invalid operand %q for field %q: %s", operand, field, reason),
		Field:   field,
		Details: map[string]string{"operand": operand},
	}
}

// NewMissingRequiredOperand creates an error for a comparison lacking an
// operand it needs.
func NewMissingRequiredOperand(field, operand, comparison string) *Error {
	return &Error{
		Code:    ErrCodeMissingRequiredOperand,
		Message: fmt.Sprintf("%s is required for %s comparison on field %q", operand, comparison, field),
		Field:   field,
		Details: map[string]string{"operand": operand, "comparison": comparison},
	}
}

// NewUnsupportedComparison creates an error for a comparison that cannot be
// executed against the field.
func NewUnsupportedComparison(field, comparison string, dataType DataType) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedComparison,
		Message: fmt.Sprintf("comparison %s is not supported for field %q of type %s", comparison, field, dataType),
		Field:   field,
		Details: map[string]string{"comparison": comparison, "data_type": string(dataType)},
	}
}

// NewEntryNotFound creates an error for a failed entry lookup.
func NewEntryNotFound(name string) *Error {
	return &Error{
		Code:    ErrCodeEntryNotFound,
		Message: fmt.Sprintf("entry %q not found", name),
	}
}

// NewCollectionNotFound creates an error for a failed collection lookup.
func NewCollectionNotFound(name string) *Error {
	return &Error{
		Code:    ErrCodeCollectionNotFound,
		Message: fmt.Sprintf("collection %q not found", name),
	}
}

// NewStoreError wraps a storage failure. The cause stays reachable through
// errors.Unwrap and errors.Is.
func NewStoreError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodeStore,
		Message: op,
		Err:     err,
	}
}
