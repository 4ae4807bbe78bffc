package backend

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by StoreErrors for operations addressing an id
// that does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNotReady is wrapped by SchemaErrors for calls made before the schema
// initializer finished.
var ErrNotReady = errors.New("storage not initialized")

// ErrorCode categorizes backend errors.
type ErrorCode string

const (
	// CodeValidation indicates a field failed shape or range checks.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeConstraint indicates a uniqueness violation.
	CodeConstraint ErrorCode = "CONSTRAINT"

	// CodeSchema indicates an expected table is missing. Fatal.
	CodeSchema ErrorCode = "SCHEMA"

	// CodeStore indicates an I/O, permission or driver fault.
	CodeStore ErrorCode = "STORE"
)

// Error is the error type returned across the Backend boundary.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation, e.g. "create project".
	Op string

	// Message is a human-readable description.
	Message string

	// Fields holds per-field messages for validation errors.
	Fields map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Constraint builds a ConstraintError.
func Constraint(op, message string, err error) *Error {
	return &Error{Code: CodeConstraint, Op: op, Message: message, Err: err}
}

// Schema builds a SchemaError.
func Schema(op, message string, err error) *Error {
	return &Error{Code: CodeSchema, Op: op, Message: message, Err: err}
}

// Store builds a StoreError.
func Store(op, message string, err error) *Error {
	return &Error{Code: CodeStore, Op: op, Message: message, Err: err}
}

// NotFound builds a StoreError wrapping ErrNotFound.
func NotFound(op, entity, id string) *Error {
	return &Error{Code: CodeStore, Op: op, Message: fmt.Sprintf("%s %q", entity, id), Err: ErrNotFound}
}

// Validation builds a ValidationError from per-field messages.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Op: op, Message: "invalid fields", Fields: fields}
}

// CodeOf returns the code of the first *Error in err's chain.
// Errors outside the taxonomy are reported as CodeStore.
func CodeOf(err error) ErrorCode {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeStore
}

func hasCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsValidation returns true if err is a ValidationError.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsConstraint returns true if err is a ConstraintError.
func IsConstraint(err error) bool { return hasCode(err, CodeConstraint) }

// IsSchema returns true if err is a SchemaError.
func IsSchema(err error) bool { return hasCode(err, CodeSchema) }

// IsStore returns true if err is a StoreError.
func IsStore(err error) bool { return hasCode(err, CodeStore) }

// IsNotFound returns true if err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTimeout returns true if err came from an exhausted execution window.
func IsTimeout(err error) bool { return errors.Is(err, context.DeadlineExceeded) }

// IsFatal reports whether the process should stop rather than continue.
// Only schema errors are fatal.
func IsFatal(err error) bool { return IsSchema(err) }
