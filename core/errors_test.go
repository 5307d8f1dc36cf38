package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	notFound := NewNotFoundError("student not found")
	assert.True(t, IsNotFound(errors.Wrap(notFound, "getting student")))
	assert.False(t, IsNotFound(errors.New("student not found")))

	conflict := NewConflictError(
		errors.New("already finalized"),
		FieldError{Field: "className", Error: "10"},
		FieldError{Field: "date", Error: "2024-08-01"},
	)
	assert.Equal(t, "already finalized (className=10, date=2024-08-01)", conflict.Error())
	var cErr *ConflictError
	assert.True(t, errors.As(errors.Wrap(conflict, "finalizing"), &cErr))
	assert.Equal(t, map[string]string{"className": "10", "date": "2024-08-01"}, cErr.Details())

	vErr := NewValidationError(nil, FieldError{Field: "endDate", Error: "must not be before startDate"})
	assert.Equal(t, "endDate: must not be before startDate", vErr.Error())

	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("db gone"), "querying")))
}
