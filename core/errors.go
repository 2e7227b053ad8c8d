package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports malformed or missing input. Messages lists every violated rule.
type ValidationError struct {
	Err      error
	Messages []string
	Fields   []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewRulesError builds a ValidationError summarised by msg and itemised by rules.
func NewRulesError(msg string, rules ...string) error {
	return &ValidationError{Err: errors.New(msg), Messages: rules}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// DuplicateError reports a unique-constraint conflict.
type DuplicateError struct {
	Message string
}

func NewDuplicateError(format string, args ...interface{}) error {
	return &DuplicateError{Message: fmt.Sprintf(format, args...)}
}

func (err DuplicateError) Error() string { return err.Message }

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Message string
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func (err NotFoundError) Error() string { return err.Message }

// NoOpError reports a mutation that would not change anything.
type NoOpError struct {
	Message string
}

func NewNoOpError(format string, args ...interface{}) error {
	return &NoOpError{Message: fmt.Sprintf(format, args...)}
}

func (err NoOpError) Error() string { return err.Message }

// ConflictError reports a write clashing with already recorded state.
type ConflictError struct {
	Message string
}

func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (err ConflictError) Error() string { return err.Message }

// ForbiddenError reports an authenticated party that may not proceed.
type ForbiddenError struct {
	Message string
}

func NewForbiddenError(format string, args ...interface{}) error {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

func (err ForbiddenError) Error() string { return err.Message }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsDuplicate(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
