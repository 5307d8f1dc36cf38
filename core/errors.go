package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports a write rejected because of the current state of the data,
// eg: marking a finalized day or finalizing a day twice.
// Fields carry the identifying values of the conflicting record.
type ConflictError struct {
	Err    error
	Fields []FieldError
}

func NewConflictError(err error, flds ...FieldError) error {
	return &ConflictError{err, flds}
}

func (err ConflictError) Error() string {
	if len(err.Fields) == 0 {
		return err.Err.Error()
	}
	parts := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		parts = append(parts, f.Field+"="+f.Error)
	}
	return fmt.Sprintf("%v (%s)", err.Err, strings.Join(parts, ", "))
}

// Details returns the conflict fields as a map.
func (err ConflictError) Details() map[string]string {
	details := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		details[f.Field] = f.Error
	}
	return details
}

type NotFoundError struct {
	msg string
}

// NewNotFoundError is meant to declare package level sentinels, eg: student.ErrNotFound.
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{msg: msg}
}

func (err *NotFoundError) Error() string {
	return err.msg
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type PermissionError struct {
	msg string
}

func NewPermissionError(msg string) error {
	return &PermissionError{msg: msg}
}

func (err *PermissionError) Error() string {
	return err.msg
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
