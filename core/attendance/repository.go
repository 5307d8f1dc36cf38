package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/student"
)

var (
	// errors
	ErrMarkNotFound       = core.NewNotFoundError("attendance mark not found")
	ErrMarkExists         = errors.New("attendance is already marked for this student and date")
	ErrAlreadyFinalized   = errors.New("attendance for this date is already finalized")
	ErrFinalized          = errors.New("attendance for this date is finalized and cannot be edited")
	ErrInvalidRange       = errors.New("endDate must not be before startDate")
	errMissingItemFields  = errors.New("missing studentId or status")
	errInvalidStatus      = errors.New("status must be Present or Absent")
	errStudentNotFound    = errors.New("student not found")
	errFinalizedElsewhere = errors.New("attendance for this date is finalized in another class and cannot be edited")
)

type (
	// MarkRepository stores one mark per (student, day).
	MarkRepository interface {
		// CreateMark fails with ErrMarkExists when the student is already marked on that day.
		CreateMark(ctx context.Context, mark Mark) (Mark, error)
		GetMark(ctx context.Context, studentID string, day time.Time) (Mark, error)
		UpdateMark(ctx context.Context, mark Mark) (Mark, error)
		// QueryMarks results are sorted by date, then student name.
		QueryMarks(ctx context.Context, filter MarkFilter) ([]Mark, error)
	}

	// Ledger is the append-only finalization store.
	Ledger interface {
		// CreateFinalization fails with ErrAlreadyFinalized when the ClassDay is already finalized.
		CreateFinalization(ctx context.Context, fin Finalization) (Finalization, error)
		IsFinalized(ctx context.Context, cd ClassDay) (bool, error)
		// QueryFinalizations results are sorted by date, then class and section.
		QueryFinalizations(ctx context.Context, filter FinalizationFilter) ([]Finalization, error)
	}

	// StudentFinder is the read side of student.Repository.
	StudentFinder interface {
		GetStudent(ctx context.Context, ref string) (student.Student, error)
		QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
	}
)
