package student

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("student not found")
	ErrRollCodeExists = errors.New("a student with this roll code already exists")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// GetStudent looks a student up by ID or, failing that, by roll code.
		GetStudent(ctx context.Context, ref string) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields; results are sorted by name.
		QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Service{repo: repo, conf: conf}
}

func rollCodeError(err error) error {
	if errors.Cause(err) == ErrRollCodeExists {
		return core.NewValidationError(err, core.FieldError{Field: "rollCode", Error: ErrRollCodeExists.Error()})
	}
	return err
}

func (svc *Service) Create(ctx context.Context, sess core.Session, ns NewStudent) (Student, error) {
	if !sess.IsAdmin() {
		return Student{}, core.ErrPermissionDenied
	}
	ns.Clean(svc.conf.Attendance.DefaultAcademicYear)
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}

	now := core.NowFunc().UTC()
	std, err := svc.repo.CreateStudent(ctx, Student{
		RollCode:      ns.RollCode,
		Name:          ns.Name,
		Email:         ns.Email,
		Class:         ns.Class,
		Section:       ns.Section,
		ParentName:    ns.ParentName,
		ParentContact: ns.ParentContact,
		AcademicYear:  ns.AcademicYear,
		Board:         ns.Board,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return Student{}, rollCodeError(err)
	}
	return std, nil
}

// Get returns the student referenced by ID or roll code.
// Students may only look themselves up.
func (svc *Service) Get(ctx context.Context, sess core.Session, ref string) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, core.CleanString(ref))
	if err != nil {
		return Student{}, err
	}
	if !sess.CanViewStudent(std.ID) && !sess.CanViewStudent(std.RollCode) {
		return Student{}, core.ErrPermissionDenied
	}
	return std, nil
}

func (svc *Service) Query(ctx context.Context, sess core.Session, filter QueryFilter) ([]Student, error) {
	if err := sess.RequireStaff(); err != nil {
		return nil, err
	}
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter)
}

// QueryActive returns the active students of a class section.
func (svc *Service) QueryActive(ctx context.Context, sess core.Session, class, section, academicYear string) ([]Student, error) {
	return svc.Query(ctx, sess, QueryFilter{
		Class:        class,
		Section:      section,
		AcademicYear: academicYear,
		IsActive:     Active(),
	})
}

func (svc *Service) Update(ctx context.Context, sess core.Session, ref string, us UpdateStudent) (Student, error) {
	if !sess.IsAdmin() {
		return Student{}, core.ErrPermissionDenied
	}
	orig, err := svc.repo.GetStudent(ctx, core.CleanString(ref))
	if err != nil {
		return Student{}, err
	}
	std, err := us.Apply(orig)
	if err != nil {
		return Student{}, err
	}
	std.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

// Deactivate soft deletes a student; their attendance history is kept.
func (svc *Service) Deactivate(ctx context.Context, sess core.Session, ref string) (Student, error) {
	inactive := false
	return svc.Update(ctx, sess, ref, UpdateStudent{IsActive: &inactive})
}
