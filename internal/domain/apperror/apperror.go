// Package apperror classifies failures of the project lifecycle so that
// transports can map them to status codes without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
)

// Kind identifies the class of an application error
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindStateGuard   Kind = "state_guard"
	KindBusinessRule Kind = "business_rule"
	KindInternal     Kind = "internal"
)

// Error is an error with a kind and optional structured details
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input
func Validation(message string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Unauthorized reports a missing or invalid credential
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden reports a role or ownership violation
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing resource
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// StateGuard reports a status that does not permit the requested action
func StateGuard(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStateGuard, Message: fmt.Sprintf(format, args...)}
}

// BusinessRule reports a violated domain constraint
func BusinessRule(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As extracts the first *Error in the chain
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
