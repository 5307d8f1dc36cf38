package attendance

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

// Finalizer is the only writer of the finalization ledger.
type Finalizer struct {
	ledger Ledger
	conf   *core.Config
}

func NewFinalizer(ledger Ledger, conf *core.Config) *Finalizer {
	vala.BeginValidation().Validate(
		vala.IsNotNil(ledger, "ledger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Finalizer{ledger: ledger, conf: conf}
}

// Finalize locks a class day. Days may be finalized with students left unmarked.
// A day is finalized once: any later attempt gets a core.ConflictError.
func (f *Finalizer) Finalize(ctx context.Context, sess core.Session, dq DayQuery) (Finalization, error) {
	if err := sess.RequireStaff(); err != nil {
		return Finalization{}, err
	}
	dq.Clean(f.conf.Attendance.DefaultAcademicYear)
	if err := core.Validate.Struct(dq); err != nil {
		return Finalization{}, err
	}
	if !sess.CanManageClass(dq.ClassName, dq.Section) {
		return Finalization{}, core.ErrPermissionDenied
	}
	cd := dq.classDay()

	finalized, err := f.ledger.IsFinalized(ctx, cd)
	if err != nil {
		return Finalization{}, errors.Wrap(err, "checking finalization")
	}
	if finalized {
		return Finalization{}, core.NewConflictError(ErrAlreadyFinalized, cd.conflictFields()...)
	}

	fin, err := f.ledger.CreateFinalization(ctx, Finalization{
		Class:        cd.Class,
		Section:      cd.Section,
		Date:         cd.Date,
		AcademicYear: cd.AcademicYear,
		FinalizedBy:  sess.UserID,
		FinalizedAt:  core.NowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyFinalized {
			return Finalization{}, core.NewConflictError(ErrAlreadyFinalized, cd.conflictFields()...)
		}
		return Finalization{}, errors.Wrap(err, "finalizing")
	}
	return fin, nil
}

// IsFinalized reports whether a class day is locked.
func (f *Finalizer) IsFinalized(ctx context.Context, dq DayQuery) (bool, error) {
	dq.Clean(f.conf.Attendance.DefaultAcademicYear)
	if err := core.Validate.Struct(dq); err != nil {
		return false, err
	}
	return f.ledger.IsFinalized(ctx, dq.classDay())
}
