package attendance

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

// ShortageChecker is notified of every student whose attendance changed.
type ShortageChecker interface {
	CheckAndNotify(ctx context.Context, studentID, academicYear string) error
}

// MarkService is the only writer of attendance marks.
type MarkService struct {
	marks      MarkRepository
	ledger     Ledger
	students   StudentFinder
	checker    ShortageChecker
	dispatcher *core.Dispatcher
	conf       *core.Config
}

// NewMarkService creates a MarkService; checker and dispatcher may both be nil, in which case
// no shortage check follows a submission.
func NewMarkService(
	marks MarkRepository,
	ledger Ledger,
	students StudentFinder,
	checker ShortageChecker,
	dispatcher *core.Dispatcher,
	conf *core.Config,
) *MarkService {
	vala.BeginValidation().Validate(
		vala.IsNotNil(marks, "marks"),
		vala.IsNotNil(ledger, "ledger"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &MarkService{
		marks:      marks,
		ledger:     ledger,
		students:   students,
		checker:    checker,
		dispatcher: dispatcher,
		conf:       conf,
	}
}

// Submit upserts the marks of a class day.
// The whole submission is rejected with a core.ConflictError when the day is finalized; otherwise every item
// is written independently and failures are reported per item in SubmitResult.Errors.
// The lock is checked again before each write: a day finalized mid-batch aborts the remaining items.
func (svc *MarkService) Submit(ctx context.Context, sess core.Session, sm SubmitMarks) (SubmitResult, error) {
	if err := sess.RequireStaff(); err != nil {
		return SubmitResult{}, err
	}
	sm.Clean(svc.conf.Attendance.DefaultAcademicYear)
	if err := core.Validate.Struct(sm); err != nil {
		return SubmitResult{}, err
	}
	if !sess.CanManageClass(sm.ClassName, sm.Section) {
		return SubmitResult{}, core.ErrPermissionDenied
	}

	day, _ := core.ParseDay(sm.Date)
	cd := ClassDay{Class: sm.ClassName, Section: sm.Section, Date: core.FormatDay(day), AcademicYear: sm.AcademicYear}

	if err := svc.ensureOpen(ctx, cd); err != nil {
		return SubmitResult{}, err
	}

	res := SubmitResult{Results: make([]Mark, 0, len(sm.Marks))}
	for _, item := range sm.Marks {
		mark, err := svc.writeItem(ctx, cd, item)
		if err != nil {
			var conflict *core.ConflictError
			if errors.As(err, &conflict) {
				// finalized while the batch was being written: stop here
				svc.checkShortages(res.Results, sm.AcademicYear)
				return SubmitResult{}, err
			}
			res.Errors = append(res.Errors, ItemError{StudentID: item.StudentID, Error: itemErrorMessage(err)})
			continue
		}
		res.Results = append(res.Results, mark)
	}
	res.Marked = len(res.Results)

	svc.checkShortages(res.Results, sm.AcademicYear)
	return res, nil
}

// ensureOpen fails with a core.ConflictError once the class day is finalized.
func (svc *MarkService) ensureOpen(ctx context.Context, cd ClassDay) error {
	finalized, err := svc.ledger.IsFinalized(ctx, cd)
	if err != nil {
		return errors.Wrap(err, "checking finalization")
	}
	if finalized {
		return core.NewConflictError(ErrFinalized, cd.conflictFields()...)
	}
	return nil
}

func itemErrorMessage(err error) string {
	if core.IsNotFound(err) {
		return errStudentNotFound.Error()
	}
	return err.Error()
}

func (svc *MarkService) writeItem(ctx context.Context, cd ClassDay, item MarkItem) (Mark, error) {
	if item.StudentID == "" || item.Status == "" {
		return Mark{}, errMissingItemFields
	}
	status := Status(item.Status)
	if !status.Valid() {
		return Mark{}, errInvalidStatus
	}

	std, err := svc.students.GetStudent(ctx, item.StudentID)
	if err != nil {
		return Mark{}, err
	}
	day, _ := core.ParseDay(cd.Date)

	existing, getErr := svc.marks.GetMark(ctx, std.ID, day)
	if getErr != nil && !core.IsNotFound(getErr) {
		return Mark{}, getErr
	}
	if err = svc.ensureOpen(ctx, cd); err != nil {
		return Mark{}, err
	}
	if getErr == nil {
		return svc.update(ctx, cd, existing, status, item.Remarks)
	}

	now := core.NowFunc().UTC()
	mark, err := svc.marks.CreateMark(ctx, Mark{
		StudentID:    std.ID,
		StudentName:  std.Name,
		Class:        cd.Class,
		Section:      cd.Section,
		Date:         day,
		Status:       status,
		AcademicYear: cd.AcademicYear,
		Remarks:      item.Remarks,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Cause(err) == ErrMarkExists {
		// lost a create race: the mark exists now
		if existing, err = svc.marks.GetMark(ctx, std.ID, day); err != nil {
			return Mark{}, err
		}
		return svc.update(ctx, cd, existing, status, item.Remarks)
	}
	return mark, err
}

// update rewrites the status of an existing mark; remarks are only replaced when provided.
func (svc *MarkService) update(ctx context.Context, cd ClassDay, mark Mark, status Status, remarks string) (Mark, error) {
	if other := mark.ClassDay(); other != cd {
		finalized, err := svc.ledger.IsFinalized(ctx, other)
		if err != nil {
			return Mark{}, err
		}
		if finalized {
			return Mark{}, errFinalizedElsewhere
		}
	}
	mark.Status = status
	if remarks != "" {
		mark.Remarks = remarks
	}
	mark.UpdatedAt = core.NowFunc().UTC()
	return svc.marks.UpdateMark(ctx, mark)
}

func (svc *MarkService) checkShortages(written []Mark, academicYear string) {
	if svc.checker == nil || svc.dispatcher == nil {
		return
	}
	seen := make(map[string]bool, len(written))
	for _, m := range written {
		if seen[m.StudentID] {
			continue
		}
		seen[m.StudentID] = true

		studentID := m.StudentID
		svc.dispatcher.Go("shortage-check", func(ctx context.Context) error {
			return svc.checker.CheckAndNotify(ctx, studentID, academicYear)
		})
	}
}
