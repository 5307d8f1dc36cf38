package class

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/teacher"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("class not found")
	ErrClassExists   = errors.New("this class section already exists for the academic year")
	ErrNoSuchTeacher = errors.New("no active teacher with this id")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		GetClassBySection(ctx context.Context, className, section, academicYear string) (Class, error)
		// QueryClasses results are sorted by class name then section.
		QueryClasses(ctx context.Context, filter QueryFilter) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
	}

	// TeacherFinder resolves active teachers; satisfied by *teacher.Service.
	TeacherFinder interface {
		Lookup(ctx context.Context, id string) (teacher.Teacher, error)
	}

	Service struct {
		repo     Repository
		teachers TeacherFinder
		conf     *core.Config
	}
)

func NewService(repo Repository, teachers TeacherFinder, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(teachers, "teachers"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Service{repo: repo, teachers: teachers, conf: conf}
}

// checkTeacher fails with a core.ValidationError when id is set but unknown to the teacher directory.
func (svc *Service) checkTeacher(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := svc.teachers.Lookup(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(ErrNoSuchTeacher, core.FieldError{Field: "classTeacher", Error: ErrNoSuchTeacher.Error()})
		}
		return errors.Wrap(err, "looking up class teacher")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, sess core.Session, nc NewClass) (Class, error) {
	if !sess.IsAdmin() {
		return Class{}, core.ErrPermissionDenied
	}
	nc.Clean(svc.conf.Attendance.DefaultAcademicYear)
	if err := nc.Validate(); err != nil {
		return Class{}, err
	}
	if err := svc.checkTeacher(ctx, nc.ClassTeacher); err != nil {
		return Class{}, err
	}

	now := core.NowFunc().UTC()
	cls, err := svc.repo.CreateClass(ctx, Class{
		ClassName:    nc.ClassName,
		Section:      nc.Section,
		AcademicYear: nc.AcademicYear,
		Board:        nc.Board,
		ClassTeacher: nc.ClassTeacher,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Cause(err) == ErrClassExists {
		return Class{}, core.NewValidationError(err, core.FieldError{Field: "section", Error: ErrClassExists.Error()})
	}
	return cls, err
}

func (svc *Service) Get(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, core.CleanString(id))
}

func (svc *Service) GetBySection(ctx context.Context, className, section, academicYear string) (Class, error) {
	if academicYear = core.CleanString(academicYear); academicYear == "" {
		academicYear = svc.conf.Attendance.DefaultAcademicYear
	}
	return svc.repo.GetClassBySection(ctx, core.CleanString(className), core.CleanString(section), academicYear)
}

func (svc *Service) Query(ctx context.Context, sess core.Session, filter QueryFilter) ([]Class, error) {
	if err := sess.RequireStaff(); err != nil {
		return nil, err
	}
	filter.AcademicYear = core.CleanString(filter.AcademicYear)
	filter.ClassTeacher = core.CleanString(filter.ClassTeacher)
	return svc.repo.QueryClasses(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, sess core.Session, id string, uc UpdateClass) (Class, error) {
	if !sess.IsAdmin() {
		return Class{}, core.ErrPermissionDenied
	}
	orig, err := svc.repo.GetClass(ctx, core.CleanString(id))
	if err != nil {
		return Class{}, err
	}
	cls := uc.Apply(orig)
	if cls.ClassTeacher != orig.ClassTeacher {
		if err = svc.checkTeacher(ctx, cls.ClassTeacher); err != nil {
			return Class{}, err
		}
	}
	cls.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}
