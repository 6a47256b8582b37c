// Package relerrors defines the structured error kinds surfaced across
// component boundaries of the relation lifecycle core.
package relerrors

import "fmt"

// Code enumerates the error kinds of spec §7.
type Code string

const (
	CodeDuplicateTable          Code = "duplicate_table"
	CodeDuplicateObject         Code = "duplicate_object"
	CodeDuplicateColumn         Code = "duplicate_column"
	CodeTooManyColumns          Code = "too_many_columns"
	CodeInvalidTableDefinition  Code = "invalid_table_definition"
	CodeInvalidObjectDefinition Code = "invalid_object_definition"
	CodeDatatypeMismatch        Code = "datatype_mismatch"
	CodeInvalidColumnReference  Code = "invalid_column_reference"
	CodeInvalidParameterValue   Code = "invalid_parameter_value"
	CodeInsufficientPrivilege   Code = "insufficient_privilege"
	CodeFeatureNotSupported     Code = "feature_not_supported"
	CodeProgramLimitExceeded    Code = "program_limit_exceeded"
)

// Error is the structured error relcore components return for the kinds
// above; other failures (bbolt, file I/O, WAL) reach callers wrapped with
// fmt.Errorf instead. It carries a
// stable Code alongside the usual human-facing message, optional detail, and
// optional hint, mirroring the source's ereport(code, message, detail, hint).
type Error struct {
	Code    Code
	Message string
	Detail  string
	Hint    string
	Wrapped error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	if e.Hint != "" {
		s += " [hint: " + e.Hint + "]"
	}
	return s
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds an *Error with no detail/hint.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of e with Detail set.
func (e *Error) WithDetail(detail string) *Error {
	c := *e
	c.Detail = detail
	return &c
}

// WithHint returns a copy of e with Hint set.
func (e *Error) WithHint(hint string) *Error {
	c := *e
	c.Hint = hint
	return &c
}

// Wrap attaches an underlying error for errors.Is/As chains while keeping
// the stable Code visible to callers.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Wrapped: err}
}

// Is reports whether err is a *Error carrying the given code, following the
// standard errors.Is protocol.
func Is(err error, code Code) bool {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Code == code
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
